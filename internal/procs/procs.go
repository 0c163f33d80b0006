// Package procs snapshots the system process table and answers questions
// about the processes running below a pane's shell.
//
// A single "ps -eo pid=,ppid=,args=" call captures every process with its
// parent, and the tree is walked in Go. One subprocess per resolution instead
// of one per pane.
package procs

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// Process is one row of the process table.
type Process struct {
	PID  int
	PPID int
	Args string
}

// Lister produces process table snapshots.
type Lister interface {
	Snapshot(ctx context.Context) (*Table, error)
}

// PS lists processes with the ps(1) binary.
type PS struct{}

// Snapshot runs ps once and parses its output.
func (PS) Snapshot(ctx context.Context) (*Table, error) {
	// "pid=" and "ppid=" suppress the header; "args=" gives the full command line.
	cmd := exec.CommandContext(ctx, "ps", "-eo", "pid=,ppid=,args=")
	out, err := cmd.Output()
	if err != nil {
		if exitErr, ok := err.(*exec.ExitError); ok {
			return nil, fmt.Errorf("ps: %w: %s", err, string(exitErr.Stderr))
		}
		return nil, fmt.Errorf("ps: %w", err)
	}
	return Parse(string(out)), nil
}

// Table is an immutable process table snapshot indexed by parent PID.
type Table struct {
	children map[int][]Process
}

// Parse builds a Table from "pid ppid args..." lines. Malformed lines are skipped.
func Parse(out string) *Table {
	t := &Table{children: map[int][]Process{}}
	for _, line := range strings.Split(out, "\n") {
		p, ok := parseLine(line)
		if !ok {
			continue
		}
		t.children[p.PPID] = append(t.children[p.PPID], p)
	}
	return t
}

// parseLine splits a ps row. PID and PPID are separated by variable
// whitespace; args may contain spaces and is kept intact.
func parseLine(line string) (Process, bool) {
	rest := strings.TrimSpace(line)
	var nums [2]int
	for i := range nums {
		idx := strings.IndexAny(rest, " \t")
		if idx < 0 {
			return Process{}, false
		}
		n, err := strconv.Atoi(rest[:idx])
		if err != nil {
			return Process{}, false
		}
		nums[i] = n
		rest = strings.TrimSpace(rest[idx:])
	}
	if rest == "" {
		return Process{}, false
	}
	return Process{PID: nums[0], PPID: nums[1], Args: rest}, true
}

// Children returns the direct children of pid in ps order.
func (t *Table) Children(pid int) []Process {
	if t == nil {
		return nil
	}
	return t.children[pid]
}

// Descendants returns processes below pid, breadth first, at most maxDepth
// levels deep. A maxDepth of 1 returns only direct children.
func (t *Table) Descendants(pid, maxDepth int) []Process {
	if t == nil || pid <= 0 || maxDepth <= 0 {
		return nil
	}

	type entry struct {
		pid   int
		depth int
	}
	var found []Process
	seen := map[int]bool{pid: true}
	queue := []entry{{pid: pid}}
	for len(queue) > 0 {
		e := queue[0]
		queue = queue[1:]
		if e.depth >= maxDepth {
			continue
		}
		for _, child := range t.children[e.pid] {
			if seen[child.PID] {
				continue
			}
			seen[child.PID] = true
			found = append(found, child)
			queue = append(queue, entry{pid: child.PID, depth: e.depth + 1})
		}
	}
	return found
}

// Find returns the first process below pid (within maxDepth) whose command
// line satisfies pred.
func (t *Table) Find(pid, maxDepth int, pred func(args string) bool) (Process, bool) {
	for _, p := range t.Descendants(pid, maxDepth) {
		if pred(p.Args) {
			return p, true
		}
	}
	return Process{}, false
}
