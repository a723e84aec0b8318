// Package discovery — поиск ODrive среди последовательных портов по USB VID:PID.
package discovery

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.bug.st/serial/enumerator"
)

// ErrNoMatch — за время поиска совместимый порт не появился
var ErrNoMatch = errors.New("no matching usb serial port")

// Интервал опроса по умолчанию
const DefaultInterval = 500 * time.Millisecond

// DefaultIDs — USB идентификаторы ODrive v3 (pid.codes 1209)
var DefaultIDs = []USBID{
	{VID: "1209", PID: "0d31"},
	{VID: "1209", PID: "0d32"},
	{VID: "1209", PID: "0d33"},
}

// USBID — пара vendor/product в hex без префикса
type USBID struct {
	VID string
	PID string
}

func (id USBID) String() string {
	return id.VID + ":" + id.PID
}

// Matches сравнивает без учёта регистра (sysfs и IOKit отдают hex по-разному)
func (id USBID) Matches(vid, pid string) bool {
	return strings.EqualFold(id.VID, vid) && strings.EqualFold(id.PID, pid)
}

// ParseUSBID разбирает строку вида "1209:0d32"
func ParseUSBID(s string) (USBID, error) {
	vid, pid, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || vid == "" || pid == "" {
		return USBID{}, fmt.Errorf("usb id %q: want vid:pid", s)
	}
	return USBID{VID: strings.ToLower(vid), PID: strings.ToLower(pid)}, nil
}

// ListFunc возвращает список портов системы
type ListFunc func() ([]*enumerator.PortDetails, error)

// Scanner опрашивает список портов, пока не найдёт совместимое устройство
type Scanner struct {
	List         ListFunc // nil → enumerator.GetDetailedPortsList
	IDs          []USBID  // пусто → DefaultIDs
	SerialNumber string   // если задан — только устройство с этим серийным номером
	Interval     time.Duration
	Timeout      time.Duration // 0 — ждать бесконечно
}

// Match возвращает совместимые USB порты, отсортированные по имени
func (s *Scanner) Match(ports []*enumerator.PortDetails) []*enumerator.PortDetails {
	ids := s.IDs
	if len(ids) == 0 {
		ids = DefaultIDs
	}
	var out []*enumerator.PortDetails
	for _, p := range ports {
		if p == nil || !p.IsUSB {
			continue
		}
		if s.SerialNumber != "" && !strings.EqualFold(p.SerialNumber, s.SerialNumber) {
			continue
		}
		for _, id := range ids {
			if id.Matches(p.VID, p.PID) {
				out = append(out, p)
				break
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// FindAny блокируется до появления совместимого порта и возвращает его имя.
// Если совпадений несколько, берётся первое по имени.
func (s *Scanner) FindAny(ctx context.Context) (string, error) {
	list := s.List
	if list == nil {
		list = enumerator.GetDetailedPortsList
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}
	var deadline <-chan time.Time
	if s.Timeout > 0 {
		t := time.NewTimer(s.Timeout)
		defer t.Stop()
		deadline = t.C
	}
	for {
		ports, err := list()
		if err != nil {
			return "", fmt.Errorf("list serial ports: %w", err)
		}
		if m := s.Match(ports); len(m) > 0 {
			return m[0].Name, nil
		}
		select {
		case <-ctx.Done():
			return "", ctx.Err()
		case <-deadline:
			return "", fmt.Errorf("%w after %v", ErrNoMatch, s.Timeout)
		case <-time.After(interval):
		}
	}
}
