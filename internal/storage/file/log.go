package file

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"stake-wallet-profiler/internal/domain"
	"stake-wallet-profiler/internal/storage"
)

// ProfileLog appends one JSON object per line to outDir/wallet_profiles.jsonl.
type ProfileLog struct {
	mu   sync.Mutex
	path string
	f    *os.File
}

// OpenProfileLog opens the log for appending, creating it if needed.
func OpenProfileLog(outDir string) (*ProfileLog, error) {
	if err := os.MkdirAll(outDir, dirPermissions); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	path := filepath.Join(outDir, ProfileLogName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, fmt.Errorf("open profile log: %w", err)
	}
	return &ProfileLog{path: path, f: f}, nil
}

// Compile-time interface check.
var _ storage.ProfileLog = (*ProfileLog)(nil)

// Path returns the log file path.
func (l *ProfileLog) Path() string {
	return l.path
}

// Append writes p as a single line. Each line is issued as one write call.
func (l *ProfileLog) Append(_ context.Context, p *domain.WalletProfile) error {
	if p == nil {
		return storage.ErrInvalidInput
	}

	line, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal profile: %w", err)
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return storage.ErrClosed
	}
	if _, err := l.f.Write(line); err != nil {
		return fmt.Errorf("append profile log: %w", err)
	}
	return nil
}

// Close syncs and closes the log file.
func (l *ProfileLog) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.f == nil {
		return nil
	}
	syncErr := l.f.Sync()
	closeErr := l.f.Close()
	l.f = nil
	if syncErr != nil {
		return fmt.Errorf("sync profile log: %w", syncErr)
	}
	return closeErr
}

// ReadProfileLog returns every decodable profile in the log at path, in order.
// Malformed lines, such as a torn final line after a crash, are skipped.
func ReadProfileLog(path string) ([]*domain.WalletProfile, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open profile log: %w", err)
	}
	defer f.Close()

	var profiles []*domain.WalletProfile
	sc := bufio.NewScanner(f)
	sc.Buffer(make([]byte, 0, 64*1024), 16*1024*1024)
	for sc.Scan() {
		if len(sc.Bytes()) == 0 {
			continue
		}
		var p domain.WalletProfile
		if err := json.Unmarshal(sc.Bytes(), &p); err != nil {
			continue
		}
		profiles = append(profiles, &p)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("scan profile log: %w", err)
	}
	return profiles, nil
}
