// Package logs reads the daemon log file for display in the CLI.
package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"
)

// TailOptions controls how much of the log file is read. A negative Offset
// means "the last Limit lines"; a non-negative Offset reads forward from
// that byte position.
type TailOptions struct {
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read plus the byte offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads log lines according to opts. A missing file is not an error;
// the daemon may simply not have logged anything yet.
func Tail(ctx context.Context, path string, opts TailOptions) (TailResult, error) {
	result := TailResult{Offset: opts.Offset}

	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			result.Offset = 0
			return result, nil
		}
		return result, fmt.Errorf("stat log file: %w", err)
	}
	if info.IsDir() {
		return result, fmt.Errorf("log path %q is a directory", path)
	}

	if opts.Wait < 0 {
		opts.Wait = 0
	}

	if opts.Offset < 0 {
		lines, offset, err := lastLines(path, opts.Limit)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = offset
		if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
			return pollForLines(ctx, path, offset, opts.Wait)
		}
		return result, nil
	}

	offset := opts.Offset
	if offset > info.Size() {
		offset = info.Size()
	}
	lines, newOffset, err := readFrom(path, offset)
	if err != nil {
		return result, err
	}
	result.Lines = lines
	result.Offset = newOffset
	if opts.Follow && opts.Wait > 0 && len(lines) == 0 {
		return pollForLines(ctx, path, newOffset, opts.Wait)
	}
	return result, nil
}

// lastLines returns up to limit trailing lines and the end-of-file offset.
func lastLines(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	ring := make([]string, limit)
	count := 0
	next := 0
	for scanner.Scan() {
		ring[next] = scanner.Text()
		next = (next + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(next+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, end, nil
}

func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, 0, nil
		}
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	newOffset, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, newOffset, nil
}

// pollForLines re-reads from offset until new lines appear, the wait budget
// runs out, or the context is canceled.
func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(250 * time.Millisecond)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, newOffset, err := readFrom(path, offset)
		if err != nil {
			return result, err
		}
		if len(lines) > 0 {
			result.Lines = lines
			result.Offset = newOffset
			return result, nil
		}
		if time.Now().After(deadline) {
			result.Offset = newOffset
			return result, nil
		}
		select {
		case <-ctx.Done():
			result.Offset = newOffset
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}
