// Package protocol holds the job and reply envelopes exchanged with the
// game frontend.
package protocol

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"

	"github.com/santhosh-tekuri/jsonschema/v5"

	"github.com/rustyscript/rustyscript/pkg/sandbox"
)

// Queue is the queue jobs are consumed from.
const Queue = "play_mission"

//go:embed job.schema.json
var jobSchemaJSON []byte

var jobSchema = mustCompile("job.schema.json", jobSchemaJSON)

func mustCompile(name string, raw []byte) *jsonschema.Schema {
	c := jsonschema.NewCompiler()
	if err := c.AddResource(name, bytes.NewReader(raw)); err != nil {
		panic(err)
	}
	return c.MustCompile(name)
}

// Job asks for one program to be played on one level.
type Job struct {
	Code          string `json:"code"`
	Level         string `json:"level"`
	ResponseQueue string `json:"response_queue"`
}

// DecodeJob validates data against the job schema and decodes it.
func DecodeJob(data []byte) (Job, error) {
	var job Job
	var v any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return job, fmt.Errorf("job: %w", err)
	}
	if err := jobSchema.Validate(v); err != nil {
		return job, fmt.Errorf("job: %w", err)
	}
	if err := json.Unmarshal(data, &job); err != nil {
		return job, fmt.Errorf("job: %w", err)
	}
	return job, nil
}

// Reply is either a finished run or an error message.
type Reply struct {
	Result int             `json:"result"`
	Texts  []sandbox.Frame `json:"texts"`
	NSteps int             `json:"n_steps"`
	Error  string          `json:"error,omitempty"`
}

// Failed builds an error reply.
func Failed(msg string) Reply {
	return Reply{Error: msg}
}

// IsError reports whether r carries an error instead of a result.
func (r Reply) IsError() bool { return r.Error != "" }

type runReply struct {
	Result int             `json:"result"`
	Texts  []sandbox.Frame `json:"texts"`
	NSteps int             `json:"n_steps"`
}

type errorReply struct {
	Error string `json:"error"`
}

// MarshalJSON emits only the fields of the reply's variant.
func (r Reply) MarshalJSON() ([]byte, error) {
	if r.IsError() {
		return marshal(errorReply{Error: r.Error})
	}
	texts := r.Texts
	if texts == nil {
		texts = []sandbox.Frame{}
	}
	return marshal(runReply{Result: r.Result, Texts: texts, NSteps: r.NSteps})
}

func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// Encode renders r the way existing clients expect it on the wire.
func (r Reply) Encode() ([]byte, error) {
	raw, err := r.MarshalJSON()
	if err != nil {
		return nil, err
	}
	return pythonStyle(raw), nil
}
