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

const (
	scanBufferInitial = 64 * 1024
	scanBufferMax     = 1024 * 1024
	followPollEvery   = 250 * time.Millisecond
)

// TailOptions selects which part of the log file to read.
type TailOptions struct {
	// Offset < 0 requests the last Limit lines. Offset >= 0 resumes
	// from that byte position.
	Offset int64
	Limit  int
	Follow bool
	Wait   time.Duration
}

// TailResult carries the lines read plus the offset to resume from.
type TailResult struct {
	Lines  []string
	Offset int64
}

// Tail reads log lines according to opts. A missing file is not an error;
// it yields no lines and offset zero so follow loops survive log rotation.
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
		lines, offset, err := tailLast(path, opts.Limit)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = offset
	} else {
		offset := opts.Offset
		if offset > info.Size() {
			offset = info.Size()
		}
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return result, err
		}
		result.Lines = lines
		result.Offset = next
	}

	if opts.Follow && opts.Wait > 0 && len(result.Lines) == 0 {
		return pollForLines(ctx, path, result.Offset, opts.Wait)
	}
	return result, nil
}

// tailLast returns the final limit lines of the file and the end offset.
func tailLast(path string, limit int) ([]string, int64, error) {
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

	scanner := newLineScanner(file)
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

// readFrom reads every complete line from offset to the end of file.
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

	scanner := newLineScanner(file)
	var lines []string
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}

	next, err := file.Seek(0, io.SeekCurrent)
	if err != nil {
		return nil, 0, fmt.Errorf("determine log offset: %w", err)
	}
	return lines, next, nil
}

func pollForLines(ctx context.Context, path string, offset int64, wait time.Duration) (TailResult, error) {
	deadline := time.Now().Add(wait)
	ticker := time.NewTicker(followPollEvery)
	defer ticker.Stop()

	result := TailResult{Offset: offset}
	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return result, err
		}
		if len(lines) > 0 {
			result.Lines = lines
			result.Offset = next
			return result, nil
		}
		result.Offset = next

		if time.Now().After(deadline) {
			return result, nil
		}
		select {
		case <-ctx.Done():
			return result, ctx.Err()
		case <-ticker.C:
		}
	}
}

func newLineScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, scanBufferInitial), scanBufferMax)
	return scanner
}
