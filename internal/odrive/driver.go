package odrive

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"time"

	"github.com/shiwa/odrive-iq/internal/ascii"
	"github.com/shiwa/odrive-iq/internal/discovery"
)

// OpenFunc открывает соединение с устройством на порту port
type OpenFunc func(port string) (PropertyConn, error)

// Driver находит ODrive и выдаёт хэндл его оси
type Driver struct {
	Port        string // пусто → поиск через Scanner
	Baud        int
	ReadTimeout time.Duration
	Checksum    bool
	Axis        int
	Scanner     *discovery.Scanner
	Open        OpenFunc // nil → ascii.Open
}

// FindAny возвращает хэндл первого совместимого устройства.
// Без явного порта блокируется, пока Scanner не найдёт устройство; по таймауту — ErrDeviceNotFound.
func (d *Driver) FindAny(ctx context.Context) (Device, error) {
	port := d.Port
	if port == "" {
		sc := d.Scanner
		if sc == nil {
			sc = &discovery.Scanner{}
		}
		var err error
		port, err = sc.FindAny(ctx)
		if errors.Is(err, discovery.ErrNoMatch) {
			return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
		}
		if err != nil {
			return nil, err
		}
	}
	conn, err := d.open(port)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
	}
	if err != nil {
		return nil, err
	}
	dev, err := NewASCIIDevice(conn, d.Axis)
	if err != nil {
		conn.Close()
		return nil, err
	}
	return dev, nil
}

func (d *Driver) open(port string) (PropertyConn, error) {
	if d.Open != nil {
		return d.Open(port)
	}
	return ascii.Open(port, d.Baud, d.ReadTimeout, d.Checksum)
}
