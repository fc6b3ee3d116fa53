// ABOUTME: Subprocess producer running external test scripts
// ABOUTME: Streams combined output line-by-line and records pass/fail from exit status

package logagg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"os/exec"
)

// RunScript executes a test script with the target address as its first
// argument, emitting one entry per output line as it arrives and a final
// TEST or ERROR entry from the exit status. Returns whether the script
// passed. The subprocess is killed when ctx is cancelled.
func (a *Aggregator) RunScript(ctx context.Context, script, target string, args []string, env map[string]string) bool {
	a.Enqueue(newEntry(SourceDriver, LevelTest, fmt.Sprintf("starting test: %s", script), ""))

	cmdArgs := append([]string{target}, args...)
	cmd := exec.CommandContext(ctx, script, cmdArgs...)

	cmd.Env = os.Environ()
	for k, v := range env {
		cmd.Env = append(cmd.Env, fmt.Sprintf("%s=%s", k, v))
	}

	// Single pipe for combined stdout/stderr so line order is preserved.
	pr, pw := io.Pipe()
	cmd.Stdout = pw
	cmd.Stderr = pw

	if err := cmd.Start(); err != nil {
		pw.Close()
		pr.Close()
		a.Enqueue(newEntry(SourceDriver, LevelError, fmt.Sprintf("test execution error: %v", err), ""))
		return false
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		scanner := bufio.NewScanner(pr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if line != "" {
				a.Enqueue(newEntry(SourceDriver, LevelInfo, line, ""))
			}
		}
	}()

	err := cmd.Wait()
	pw.Close()
	<-done
	pr.Close()

	if err != nil {
		a.Enqueue(newEntry(SourceDriver, LevelError,
			fmt.Sprintf("test failed: %s (%v)", script, err), ""))
		return false
	}

	a.Enqueue(newEntry(SourceDriver, LevelTest, fmt.Sprintf("test completed successfully: %s", script), ""))
	return true
}
