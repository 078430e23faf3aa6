package runner

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyscript/rustyscript/pkg/protocol"
)

const circusLoop = "program p use legs begin legs.right() legs.right() legs.down() legs.down() legs.left() legs.left() legs.up() legs.up() end"

func fixed() *Runner {
	r := New()
	r.Seed = func() int64 { return 7 }
	return r
}

func TestRunWin(t *testing.T) {
	reply := fixed().Run(protocol.Job{Code: circusLoop, Level: "circus", ResponseQueue: "q"})
	require.False(t, reply.IsError(), reply.Error)
	assert.Equal(t, 1, reply.Result)
	assert.Equal(t, 15, reply.NSteps)
	assert.Len(t, reply.Texts, 8)
}

func TestRunLose(t *testing.T) {
	reply := Run(protocol.Job{Code: "program p use legs begin legs.up() end", Level: "circus"})
	require.False(t, reply.IsError(), reply.Error)
	assert.Equal(t, 0, reply.Result)
	assert.Equal(t, 1, reply.NSteps)
}

func TestRunErrors(t *testing.T) {
	tests := []struct {
		name string
		job  protocol.Job
		msg  string
	}{
		{"lexical", protocol.Job{Code: "program p begin # end", Level: "circus"}, "unexpected character"},
		{"syntax", protocol.Job{Code: "program begin end", Level: "circus"}, "syntax error"},
		{"syntax before level", protocol.Job{Code: "begin", Level: "moon"}, "syntax error"},
		{"unknown level", protocol.Job{Code: "program p begin end", Level: "moon"}, "Mission not found!"},
		{"semantic", protocol.Job{Code: "program p use legs begin wings.fly() end", Level: "circus"}, `"wings" is not imported`},
		{"module not on level", protocol.Job{Code: "program p use debug begin end", Level: "circus"}, `unknown module "debug"`},
		{"deep nesting", protocol.Job{Code: "program p use legs begin if " + strings.Repeat("(", 3_000_000) + "1" + strings.Repeat(")", 3_000_000) + " then legs.right() end", Level: "circus"}, "nested too deeply"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reply := fixed().Run(tt.job)
			require.True(t, reply.IsError())
			assert.Contains(t, reply.Error, tt.msg)
		})
	}
}

func TestPlayReturnsResult(t *testing.T) {
	reply, res := fixed().Play(protocol.Job{Code: circusLoop, Level: "circus"})
	require.NotNil(t, res)
	assert.True(t, res.Win)
	assert.Equal(t, reply.NSteps, res.Ticks)

	_, res = fixed().Play(protocol.Job{Code: "program", Level: "circus"})
	assert.Nil(t, res)
}
