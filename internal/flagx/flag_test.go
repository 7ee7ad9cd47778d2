package flagx

import (
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFilterArgs(t *testing.T) {
	allowed := []string{"-c", "-config", "--config"}

	tests := []struct {
		name string
		args []string
		want []string
	}{
		{
			name: "short flag with its value survives, the rest is dropped",
			args: []string{"-c", "conf.json", "-a", "http://localhost:8080", "-b", "25"},
			want: []string{"-c", "conf.json"},
		},
		{
			name: "equals form matches on the flag name",
			args: []string{"-b", "25", "--config=alt.json"},
			want: []string{"--config=alt.json"},
		},
		{
			name: "a following dash token is not consumed as a value",
			args: []string{"-c", "-r"},
			want: []string{"-c"},
		},
		{
			name: "trailing flag without value stays",
			args: []string{"-i", "5m", "-c"},
			want: []string{"-c"},
		},
		{
			name: "repeated flags keep their relative order",
			args: []string{"-c", "one.json", "--config=two.json"},
			want: []string{"-c", "one.json", "--config=two.json"},
		},
		{
			name: "nothing allowed in the input",
			args: []string{"-a", "http://localhost:8080", "positional"},
			want: []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, FilterArgs(tt.args, allowed))
		})
	}
}

func TestJsonConfigFlags(t *testing.T) {
	origArgs := os.Args
	t.Cleanup(func() { os.Args = origArgs })

	t.Run("absent", func(t *testing.T) {
		os.Args = []string{"syncctl", "-a", "http://localhost:8080"}
		assert.Empty(t, JsonConfigFlags())
	})

	t.Run("short form", func(t *testing.T) {
		os.Args = []string{"syncctl", "-c", "sync.json"}
		assert.Equal(t, "sync.json", JsonConfigFlags())
	})

	t.Run("long form", func(t *testing.T) {
		os.Args = []string{"syncctl", "-config", "/etc/sync.json"}
		assert.Equal(t, "/etc/sync.json", JsonConfigFlags())
	})

	t.Run("last occurrence wins", func(t *testing.T) {
		os.Args = []string{"syncctl", "-c", "a.json", "-config", "b.json"}
		assert.Equal(t, "b.json", JsonConfigFlags())
	})
}
