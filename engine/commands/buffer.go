package commands

import (
	"github.com/google/uuid"

	"github.com/spaghettifunk/lumen/engine/core"
	"github.com/spaghettifunk/lumen/engine/renderer/metadata"
	"github.com/spaghettifunk/lumen/engine/renderer/native"
)

// Backend is the native surface consulted while recording: capabilities for
// feature checks and the command backend for fences.
type Backend interface {
	native.Capabilities
	native.CommandBackend
}

/**
 * @brief An append-only list of rendering commands. Recording validates each
 * command against the buffer's execution flags; execution happens when the
 * buffer is handed to Graphics.ExecuteCommandBuffer or its async variant.
 * A buffer is recorded from one goroutine at a time.
 */
type CommandBuffer struct {
	name     string
	backend  Backend
	flags    metadata.CommandBufferExecutionFlags
	commands []native.Command
	samples  []string
	released bool
}

type Option func(*CommandBuffer)

// WithName names the buffer for profiling and logs.
func WithName(name string) Option {
	return func(cb *CommandBuffer) {
		cb.name = name
	}
}

// WithExecutionFlags sets the flags before anything is recorded.
func WithExecutionFlags(flags metadata.CommandBufferExecutionFlags) Option {
	return func(cb *CommandBuffer) {
		cb.flags = flags
	}
}

// New creates an empty buffer. Without WithName the buffer gets a random uuid name.
func New(backend Backend, opts ...Option) (*CommandBuffer, error) {
	if backend == nil {
		return nil, core.InvalidArgument("command buffer backend is nil")
	}
	cb := &CommandBuffer{backend: backend}
	for _, opt := range opts {
		opt(cb)
	}
	if cb.name == "" {
		cb.name = uuid.New().String()
	}
	if err := cb.checkFlags(cb.flags); err != nil {
		return nil, err
	}
	return cb, nil
}

func (cb *CommandBuffer) Name() string {
	return cb.name
}

func (cb *CommandBuffer) SetName(name string) {
	cb.name = name
}

func (cb *CommandBuffer) ExecutionFlags() metadata.CommandBufferExecutionFlags {
	return cb.flags
}

func (cb *CommandBuffer) checkFlags(flags metadata.CommandBufferExecutionFlags) error {
	if flags != metadata.ExecutionFlagsNone && flags != metadata.ExecutionFlagsAsyncCompute {
		return core.InvalidArgument("unknown execution flags %d", flags)
	}
	if flags.Has(metadata.ExecutionFlagsAsyncCompute) && !cb.backend.Features().Has(native.FeatureAsyncCompute) {
		return core.Unsupported("async compute on %s", cb.backend.DeviceName())
	}
	return nil
}

// SetExecutionFlags fails once the buffer holds commands.
func (cb *CommandBuffer) SetExecutionFlags(flags metadata.CommandBufferExecutionFlags) error {
	if err := cb.alive(); err != nil {
		return err
	}
	if len(cb.commands) > 0 {
		return core.InvalidOperation("cannot change execution flags of command buffer %q after commands have been recorded", cb.name)
	}
	if err := cb.checkFlags(flags); err != nil {
		return err
	}
	cb.flags = flags
	return nil
}

// SizeInBytes approximates the recorded size as one word per command.
func (cb *CommandBuffer) SizeInBytes() int {
	return len(cb.commands) * 8
}

func (cb *CommandBuffer) Len() int {
	return len(cb.commands)
}

// Commands returns a copy of the recorded list.
func (cb *CommandBuffer) Commands() []native.Command {
	return append([]native.Command(nil), cb.commands...)
}

// Clear drops every recorded command. Execution flags are kept.
func (cb *CommandBuffer) Clear() {
	cb.commands = cb.commands[:0]
	cb.samples = cb.samples[:0]
}

// Release frees the buffer. Calling Release again does nothing.
func (cb *CommandBuffer) Release() {
	if cb == nil || cb.released {
		return
	}
	cb.released = true
	cb.commands = nil
	cb.samples = nil
}

func (cb *CommandBuffer) IsReleased() bool {
	return cb.released
}

// OpenSamples lists BeginSample names not yet closed, innermost last.
func (cb *CommandBuffer) OpenSamples() []string {
	return append([]string(nil), cb.samples...)
}

func (cb *CommandBuffer) alive() error {
	if cb.released {
		return core.InvalidOperation("command buffer %q has been released", cb.name)
	}
	return nil
}

// validate rejects commands the buffer's execution flags do not allow.
func (cb *CommandBuffer) validate(cmd native.Command) error {
	if err := cb.alive(); err != nil {
		return err
	}
	if cb.flags.Has(metadata.ExecutionFlagsAsyncCompute) && !native.AsyncComputeAllowed(cmd) {
		return core.InvalidOperation("%s cannot be recorded into command buffer %q with execution flags %s", cmd.CommandName(), cb.name, cb.flags)
	}
	return nil
}

func (cb *CommandBuffer) record(cmd native.Command) error {
	if err := cb.validate(cmd); err != nil {
		return err
	}
	cb.commands = append(cb.commands, cmd)
	return nil
}

func (cb *CommandBuffer) requireFeature(feature native.Features, what string) error {
	if !cb.backend.Features().Has(feature) {
		return core.Unsupported("%s on %s", what, cb.backend.DeviceName())
	}
	return nil
}
