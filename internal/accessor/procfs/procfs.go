// Package procfs drives the kernel same-page-merging driver through its
// procfs command files. Page content comes from /proc/<pid>/mem and scan
// regions from /proc/<pid>/smaps; merge and unmerge requests are written to
// the driver's files under /proc/uksm.
package procfs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shirou/gopsutil/process"
	"golang.org/x/sys/unix"

	"github.com/cowpool/samepaged/internal/dedup"
)

const (
	// DefaultProcRoot is where the proc filesystem normally lives.
	DefaultProcRoot = "/proc"
	// DefaultDriverRoot holds the driver's command files.
	DefaultDriverRoot = "/proc/uksm"
)

const (
	cmpFile     = "cmp"
	mergeFile   = "merge"
	unmergeFile = "unmerge"
	drainFile   = "lru_add_drain_all"
)

// errPagesNotSame is the errno the driver reports when the two pages of a
// command are not byte-identical.
const errPagesNotSame = unix.Errno(541)

// ErrPagesDiffer reports that the driver refused a merge because the page
// content changed between scan and merge.
var ErrPagesDiffer = errors.New("pages differ")

// Config locates the proc filesystem and the driver. Zero values select the
// defaults; a relocated ProcRoot serves containers that mount the host proc
// elsewhere.
type Config struct {
	ProcRoot   string
	DriverRoot string
}

// Accessor is the production memory backend. It implements
// dedup.MemoryAccessor, dedup.RegionSource and dedup.PassPreparer.
type Accessor struct {
	procRoot   string
	driverRoot string
	pageSize   uint64
}

// New creates an accessor using the host page size.
func New(cfg Config) *Accessor {
	if cfg.ProcRoot == "" {
		cfg.ProcRoot = DefaultProcRoot
	}
	if cfg.DriverRoot == "" {
		cfg.DriverRoot = DefaultDriverRoot
	}
	return &Accessor{
		procRoot:   cfg.ProcRoot,
		driverRoot: cfg.DriverRoot,
		pageSize:   uint64(os.Getpagesize()),
	}
}

// PageSize reports the host page size.
func (a *Accessor) PageSize() uint64 {
	return a.pageSize
}

// CheckDriver verifies every driver command file accepts writes. It is the
// daemon's startup probe for a kernel built with the driver.
func (a *Accessor) CheckDriver() error {
	for _, name := range []string{cmpFile, mergeFile, unmergeFile, drainFile} {
		f, err := a.openDriver(name)
		if err != nil {
			return err
		}
		f.Close()
	}
	return nil
}

// ReadPage reads one page of process memory.
func (a *Accessor) ReadPage(_ context.Context, pid, addr uint64) ([]byte, error) {
	f, err := os.Open(a.procPath(pid, "mem"))
	if err != nil {
		if processGone(err) {
			return nil, fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
		}
		return nil, fmt.Errorf("open mem of pid %d: %w", pid, err)
	}
	defer f.Close()

	buf := make([]byte, a.pageSize)
	if _, err := f.ReadAt(buf, int64(addr)); err != nil {
		if processGone(err) {
			return nil, fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
		}
		return nil, fmt.Errorf("read pid %d page %#x: %w", pid, addr, err)
	}
	return buf, nil
}

// Merge merges each member into the canonical page, one driver command per
// member. The driver re-compares the pages itself before merging, so a page
// that changed since the scan fails with ErrPagesDiffer instead of merging
// stale content.
func (a *Accessor) Merge(_ context.Context, canonical dedup.PageRef, members []dedup.PageRef) []dedup.MemberResult {
	cmp, err := a.openDriver(cmpFile)
	if err != nil {
		return failAll(members, err)
	}
	defer cmp.Close()

	merge, err := a.openDriver(mergeFile)
	if err != nil {
		return failAll(members, err)
	}
	defer merge.Close()

	results := make([]dedup.MemberResult, 0, len(members))
	for _, member := range members {
		results = append(results, dedup.MemberResult{
			Ref: member,
			Err: a.mergePair(cmp, merge, canonical, member),
		})
	}
	return results
}

func (a *Accessor) mergePair(cmp, merge *os.File, canonical, member dedup.PageRef) error {
	cmd := fmt.Sprintf("%d 0x%x %d 0x%x", canonical.PID, canonical.Addr, member.PID, member.Addr)
	if _, err := cmp.WriteString(cmd); err != nil {
		return driverError(cmpFile, err)
	}
	if _, err := merge.WriteString(cmd); err != nil {
		return driverError(mergeFile, err)
	}
	return nil
}

// Unmerge restores a private copy of the page. A process that exited
// already satisfies the unmerge.
func (a *Accessor) Unmerge(_ context.Context, pid, addr uint64) error {
	f, err := a.openDriver(unmergeFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := fmt.Fprintf(f, "%d 0x%x", pid, addr); err != nil {
		if processGone(err) {
			return nil
		}
		return driverError(unmergeFile, err)
	}
	return nil
}

// PreparePass drains the kernel's per-cpu page caches so freshly touched
// pages reach the LRU before the scan reads them.
func (a *Accessor) PreparePass(_ context.Context) error {
	f, err := a.openDriver(drainFile)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteString("1"); err != nil {
		return driverError(drainFile, err)
	}
	return nil
}

// Regions reports the address ranges worth scanning for a pid.
func (a *Accessor) Regions(_ context.Context, pid uint64) ([]dedup.Region, error) {
	f, err := os.Open(a.procPath(pid, "smaps"))
	if err != nil {
		if processGone(err) {
			return nil, fmt.Errorf("pid %d: %w", pid, dedup.ErrNoProcess)
		}
		return nil, fmt.Errorf("open smaps of pid %d: %w", pid, err)
	}
	defer f.Close()

	regions, err := parseSMaps(f)
	if err != nil {
		return nil, fmt.Errorf("smaps of pid %d: %w", pid, err)
	}
	return regions, nil
}

// Alive reports whether the pid exists. A relocated proc root is probed
// directly because gopsutil only reads the host proc.
func (a *Accessor) Alive(pid uint64) bool {
	if pid == 0 || pid > math.MaxInt32 {
		return false
	}
	if a.procRoot != DefaultProcRoot {
		_, err := os.Stat(a.procPath(pid, "smaps"))
		return err == nil
	}
	exists, err := process.PidExists(int32(pid))
	return err == nil && exists
}

func (a *Accessor) openDriver(name string) (*os.File, error) {
	f, err := os.OpenFile(filepath.Join(a.driverRoot, name), os.O_WRONLY, 0)
	if err != nil {
		return nil, fmt.Errorf("uksm driver: %w", err)
	}
	return f, nil
}

func (a *Accessor) procPath(pid uint64, name string) string {
	return filepath.Join(a.procRoot, strconv.FormatUint(pid, 10), name)
}

func driverError(file string, err error) error {
	if errors.Is(err, errPagesNotSame) {
		return ErrPagesDiffer
	}
	if processGone(err) {
		return fmt.Errorf("driver %s: %w", file, dedup.ErrNoProcess)
	}
	return fmt.Errorf("write driver %s: %w", file, err)
}

func processGone(err error) bool {
	return errors.Is(err, unix.ESRCH) || errors.Is(err, os.ErrNotExist)
}

func failAll(members []dedup.PageRef, err error) []dedup.MemberResult {
	results := make([]dedup.MemberResult, 0, len(members))
	for _, member := range members {
		results = append(results, dedup.MemberResult{Ref: member, Err: err})
	}
	return results
}

// parseSMaps extracts the ranges holding at least one anonymous page.
// Hugetlb mappings are skipped outright; the driver cannot merge them.
func parseSMaps(r io.Reader) ([]dedup.Region, error) {
	var regions []dedup.Region
	var current dedup.Region
	var anonymous, hugetlb bool

	flush := func() {
		if anonymous && !hugetlb && current.End > current.Start {
			regions = append(regions, current)
		}
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if start, end, ok := parseVMAHeader(line); ok {
			flush()
			current = dedup.Region{Start: start, End: end}
			anonymous, hugetlb = false, false
			continue
		}
		name, kb, ok := parseAttribute(line)
		if !ok {
			continue
		}
		switch name {
		case "Anonymous":
			anonymous = anonymous || kb > 0
		case "Shared_Hugetlb", "Private_Hugetlb":
			hugetlb = hugetlb || kb > 0
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	flush()
	return regions, nil
}

// parseVMAHeader picks the address range out of a mapping line such as
// "7f1000-7f3000 rw-p 00000000 00:00 0 [heap]".
func parseVMAHeader(line string) (uint64, uint64, bool) {
	addrs, _, found := strings.Cut(line, " ")
	if !found {
		return 0, 0, false
	}
	lo, hi, found := strings.Cut(addrs, "-")
	if !found {
		return 0, 0, false
	}
	start, err := strconv.ParseUint(lo, 16, 64)
	if err != nil {
		return 0, 0, false
	}
	end, err := strconv.ParseUint(hi, 16, 64)
	if err != nil || end <= start {
		return 0, 0, false
	}
	return start, end, true
}

// parseAttribute splits a field line such as "Anonymous: 4 kB".
func parseAttribute(line string) (string, uint64, bool) {
	name, rest, found := strings.Cut(line, ":")
	if !found {
		return "", 0, false
	}
	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", 0, false
	}
	kb, err := strconv.ParseUint(fields[0], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return name, kb, true
}
