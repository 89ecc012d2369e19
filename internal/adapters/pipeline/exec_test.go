package pipeline

import (
	"context"
	"os/exec"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// shell returns a command that runs script with the job args as $1..$3.
func shell(t *testing.T, script string) []string {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	return []string{"sh", "-c", script, "pipeline"}
}

func TestNewExec_RequiresCommand(t *testing.T) {
	_, err := NewExec(ExecOptions{})
	require.ErrorIs(t, err, ErrNoCommand)

	_, err = NewExec(ExecOptions{Command: []string{"  "}})
	require.ErrorIs(t, err, ErrNoCommand)
}

func TestExec_Run_PassesArgsAndParsesManifest(t *testing.T) {
	script := `echo "downloading $2" >&2
echo "progress 50%"
printf '[{"path":"%s/clip_1.mp4","hook":"%s"},{"path":"%s/clip_2.mp4"}]\n' "$1" "$3 $MAX_CLIPS $STREAMCLIP_JOB_ID" "$1"`
	e, err := NewExec(ExecOptions{Command: shell(t, script), Timeout: 10 * time.Second})
	require.NoError(t, err)

	clips, err := e.Run(context.Background(), Request{JobID: "job-1", URL: "https://youtu.be/x", MaxClips: 6})
	require.NoError(t, err)
	require.Len(t, clips, 2)

	assert.Equal(t, "job-1/clip_1.mp4", clips[0].Path)
	require.NotNil(t, clips[0].Hook)
	assert.Equal(t, "6 6 job-1", *clips[0].Hook)
	assert.Equal(t, "job-1/clip_2.mp4", clips[1].Path)
	assert.Nil(t, clips[1].Hook)
}

func TestExec_Run_NonZeroExit(t *testing.T) {
	e, err := NewExec(ExecOptions{Command: shell(t, `echo "yt-dlp: video unavailable" >&2; exit 3`)})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), Request{JobID: "j", URL: "u", MaxClips: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "exit 3")
	assert.Contains(t, err.Error(), "video unavailable")
}

func TestExec_Run_Timeout(t *testing.T) {
	e, err := NewExec(ExecOptions{Command: shell(t, `exec sleep 5`), Timeout: 100 * time.Millisecond})
	require.NoError(t, err)

	start := time.Now()
	_, err = e.Run(context.Background(), Request{JobID: "j", URL: "u", MaxClips: 1})
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestExec_Run_MissingBinary(t *testing.T) {
	e, err := NewExec(ExecOptions{Command: []string{"/definitely/not/a/pipeline"}})
	require.NoError(t, err)

	_, err = e.Run(context.Background(), Request{JobID: "j", URL: "u", MaxClips: 1})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "execute pipeline")
}

func TestParseManifest(t *testing.T) {
	tests := []struct {
		name    string
		out     string
		want    int
		wantErr string
	}{
		{name: "plain", out: `[{"path":"a.mp4"}]`, want: 1},
		{name: "empty array", out: "[]\n", want: 0},
		{name: "log lines first", out: "Processing...\nRUN: ffmpeg\n[{\"path\":\"a\"},{\"path\":\"b\"}]\n", want: 2},
		{name: "nothing", out: "", wantErr: "no clip manifest"},
		{name: "only logs", out: "done\n", wantErr: "no clip manifest"},
		{name: "bad json", out: `[{"path": 1}]`, wantErr: "decode clip manifest"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clips, err := ParseManifest([]byte(tt.out))
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Len(t, clips, tt.want)
		})
	}
}

func TestParseManifest_NormalizesHooks(t *testing.T) {
	clips, err := ParseManifest([]byte(`[{"path":" a.mp4 ","hook":"   "},{"path":"b","hook":" hi "}]`))
	require.NoError(t, err)
	assert.Equal(t, "a.mp4", clips[0].Path)
	assert.Nil(t, clips[0].Hook)
	require.NotNil(t, clips[1].Hook)
	assert.Equal(t, "hi", *clips[1].Hook)
}

func TestBuffers(t *testing.T) {
	lb := &limitedBuffer{max: 4}
	n, err := lb.Write([]byte("abcdef"))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	assert.True(t, lb.overflow)
	assert.Equal(t, "abcd", lb.String())

	tb := &tailBuffer{max: 5}
	_, _ = tb.Write([]byte("hello "))
	_, _ = tb.Write([]byte("world"))
	assert.Equal(t, "world", tb.String())
	assert.False(t, strings.Contains(tb.String(), "hello"))
}
