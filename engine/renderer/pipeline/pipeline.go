package pipeline

import (
	"errors"
	"fmt"

	"github.com/Carmen-Shannon/oxy-circle/common"
	"github.com/Carmen-Shannon/oxy-circle/engine/renderer/shader"
)

// State is the lifecycle stage of a Pipeline.
type State int

const (
	// StateUncompiled is the initial state: shader sources are attached but nothing exists on the GPU.
	StateUncompiled State = iota

	// StateCompiled means both stage objects compiled successfully and are awaiting link.
	StateCompiled

	// StateLinked means the program object linked and the stage objects were released.
	StateLinked

	// StateActive means the program is installed for drawing.
	StateActive

	// StateCompileFailed is terminal: a stage failed to compile.
	StateCompileFailed

	// StateLinkFailed is terminal: the stages compiled but the program failed to link.
	StateLinkFailed
)

func (s State) String() string {
	switch s {
	case StateUncompiled:
		return "uncompiled"
	case StateCompiled:
		return "compiled"
	case StateLinked:
		return "linked"
	case StateActive:
		return "active"
	case StateCompileFailed:
		return "compile-failed"
	case StateLinkFailed:
		return "link-failed"
	default:
		return "unknown"
	}
}

// transitions lists the states reachable from each state.
var transitions = map[State][]State{
	StateUncompiled: {StateCompiled, StateCompileFailed},
	StateCompiled:   {StateLinked, StateLinkFailed},
	StateLinked:     {StateActive},
	StateActive:     {StateActive},
}

var (
	// ErrInvalidTransition is returned when a state change is not allowed from the current state.
	ErrInvalidTransition = errors.New("pipeline: invalid state transition")

	// ErrMissingShader is returned by Validate when a stage has no shader attached.
	ErrMissingShader = errors.New("pipeline: missing shader")

	// ErrLanguageMismatch is returned by Validate when the two stages use different shading languages.
	ErrLanguageMismatch = errors.New("pipeline: shader language mismatch")
)

// pipeline is the implementation of the Pipeline interface.
type pipeline struct {
	// pipelineKey is the unique identifier for this pipeline, used for labels and diagnostics
	pipelineKey string

	vertexShader, fragmentShader shader.Shader

	topology common.Topology

	state                      State
	handle                     common.PipelineHandle
	vertexStage, fragmentStage common.StageHandle
	err                        error
}

// Pipeline is a vertex + fragment shader pair together with the GPU objects built from it.
// It tracks the compile/link lifecycle so a backend can never draw with a pipeline that
// did not link.
type Pipeline interface {
	// PipelineKey returns the unique key associated with this pipeline.
	//
	// Returns:
	//   - string: the unique key for this pipeline
	PipelineKey() string

	// Shader retrieves the shader attached for the given stage.
	//
	// Parameters:
	//   - shaderType: the stage to retrieve
	//
	// Returns:
	//   - shader.Shader: the shader for that stage, or nil if not set
	Shader(shaderType shader.ShaderType) shader.Shader

	// Topology returns how the pipeline assembles vertices into primitives.
	//
	// Returns:
	//   - common.Topology: the primitive topology, TopologyTriangleFan by default
	Topology() common.Topology

	// State returns the current lifecycle state.
	//
	// Returns:
	//   - State: the current state
	State() State

	// Handle returns the linked program handle.
	//
	// Returns:
	//   - common.PipelineHandle: the program handle, or zero before a successful link
	Handle() common.PipelineHandle

	// Stages returns the compiled stage objects awaiting link.
	//
	// Returns:
	//   - common.StageHandle: the vertex stage, zero when none is held
	//   - common.StageHandle: the fragment stage, zero when none is held
	Stages() (common.StageHandle, common.StageHandle)

	// Err returns the failure that moved the pipeline into a terminal state.
	//
	// Returns:
	//   - error: the compile or link error, or nil
	Err() error

	// Validate checks that both stages are attached and written in the same language.
	//
	// Returns:
	//   - error: ErrMissingShader or ErrLanguageMismatch, or nil
	Validate() error

	// MarkCompiled records both compiled stage objects and moves to StateCompiled.
	//
	// Parameters:
	//   - vertex: the compiled vertex stage
	//   - fragment: the compiled fragment stage
	//
	// Returns:
	//   - error: ErrInvalidTransition unless the pipeline is uncompiled
	MarkCompiled(vertex, fragment common.StageHandle) error

	// MarkCompileFailed records a compile failure and moves to StateCompileFailed.
	//
	// Parameters:
	//   - cause: the compile error
	//
	// Returns:
	//   - error: ErrInvalidTransition unless the pipeline is uncompiled
	MarkCompileFailed(cause error) error

	// MarkLinked records the program handle, forgets the stage objects and moves to StateLinked.
	// The caller is responsible for releasing the stage objects on the GPU.
	//
	// Parameters:
	//   - handle: the linked program
	//
	// Returns:
	//   - error: ErrInvalidTransition unless the pipeline is compiled
	MarkLinked(handle common.PipelineHandle) error

	// MarkLinkFailed records a link failure, forgets the stage objects and moves to StateLinkFailed.
	//
	// Parameters:
	//   - cause: the link error
	//
	// Returns:
	//   - error: ErrInvalidTransition unless the pipeline is compiled
	MarkLinkFailed(cause error) error

	// Activate moves a linked pipeline to StateActive. Calling it again while active is a no-op.
	//
	// Returns:
	//   - error: ErrInvalidTransition unless the pipeline is linked or active
	Activate() error
}

var _ Pipeline = &pipeline{}

// NewPipeline creates an uncompiled Pipeline configured by the given options.
//
// Parameters:
//   - pipelineKey: the unique key for this pipeline
//   - opts: a variadic list of PipelineBuilderOption functions to configure the pipeline
//
// Returns:
//   - Pipeline: a new Pipeline in StateUncompiled
func NewPipeline(pipelineKey string, opts ...PipelineBuilderOption) Pipeline {
	p := &pipeline{
		pipelineKey: pipelineKey,
		topology:    common.TopologyTriangleFan,
		state:       StateUncompiled,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

func (p *pipeline) PipelineKey() string {
	return p.pipelineKey
}

func (p *pipeline) Shader(shaderType shader.ShaderType) shader.Shader {
	switch shaderType {
	case shader.ShaderTypeVertex:
		return p.vertexShader
	case shader.ShaderTypeFragment:
		return p.fragmentShader
	default:
		return nil
	}
}

func (p *pipeline) Topology() common.Topology {
	return p.topology
}

func (p *pipeline) State() State {
	return p.state
}

func (p *pipeline) Handle() common.PipelineHandle {
	return p.handle
}

func (p *pipeline) Stages() (common.StageHandle, common.StageHandle) {
	return p.vertexStage, p.fragmentStage
}

func (p *pipeline) Err() error {
	return p.err
}

func (p *pipeline) Validate() error {
	if p.vertexShader == nil {
		return fmt.Errorf("%s: %w: vertex", p.pipelineKey, ErrMissingShader)
	}
	if p.fragmentShader == nil {
		return fmt.Errorf("%s: %w: fragment", p.pipelineKey, ErrMissingShader)
	}
	if p.vertexShader.Language() != p.fragmentShader.Language() {
		return fmt.Errorf("%s: %w: %s vs %s", p.pipelineKey, ErrLanguageMismatch,
			p.vertexShader.Language(), p.fragmentShader.Language())
	}
	return nil
}

func (p *pipeline) MarkCompiled(vertex, fragment common.StageHandle) error {
	if err := p.transition(StateCompiled); err != nil {
		return err
	}
	p.vertexStage, p.fragmentStage = vertex, fragment
	return nil
}

func (p *pipeline) MarkCompileFailed(cause error) error {
	if err := p.transition(StateCompileFailed); err != nil {
		return err
	}
	p.err = cause
	return nil
}

func (p *pipeline) MarkLinked(handle common.PipelineHandle) error {
	if err := p.transition(StateLinked); err != nil {
		return err
	}
	p.handle = handle
	p.vertexStage, p.fragmentStage = 0, 0
	return nil
}

func (p *pipeline) MarkLinkFailed(cause error) error {
	if err := p.transition(StateLinkFailed); err != nil {
		return err
	}
	p.err = cause
	p.vertexStage, p.fragmentStage = 0, 0
	return nil
}

func (p *pipeline) Activate() error {
	return p.transition(StateActive)
}

// transition moves to the target state if the transition table allows it.
func (p *pipeline) transition(to State) error {
	for _, allowed := range transitions[p.state] {
		if allowed == to {
			p.state = to
			return nil
		}
	}
	return fmt.Errorf("%s: %w: %s -> %s", p.pipelineKey, ErrInvalidTransition, p.state, to)
}
