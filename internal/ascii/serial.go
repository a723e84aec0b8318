package ascii

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/tarm/serial"
)

// Port — обёртка над последовательным портом ODrive для ASCII протокола
type Port struct {
	rw       io.ReadWriteCloser
	rd       *bufio.Reader
	checksum bool
	unlock   func() error
}

// Open открывает последовательный порт и берёт на него эксклюзивную блокировку.
// readTimeout ограничивает ожидание ответа на команду чтения.
func Open(device string, baud int, readTimeout time.Duration, withChecksum bool) (*Port, error) {
	unlock, err := lockExclusive(device)
	if err != nil {
		return nil, fmt.Errorf("lock %s: %w", device, err)
	}
	c := &serial.Config{
		Name:        device,
		Baud:        baud,
		ReadTimeout: readTimeout,
	}
	p, err := serial.OpenPort(c)
	if err != nil {
		_ = unlock()
		return nil, fmt.Errorf("serial open %s: %w", device, err)
	}
	port := NewPort(p, withChecksum)
	port.unlock = unlock
	return port, nil
}

// NewPort создаёт Port поверх произвольного потока (тесты, TCP-мосты к UART)
func NewPort(rw io.ReadWriteCloser, withChecksum bool) *Port {
	return &Port{
		rw:       rw,
		rd:       bufio.NewReader(rw),
		checksum: withChecksum,
	}
}

// Read запрашивает значение свойства и возвращает его в текстовом виде
func (p *Port) Read(property string) (string, error) {
	cmd := EncodeRead(property, p.checksum)
	if _, err := p.rw.Write(cmd); err != nil {
		return "", fmt.Errorf("write %s: %w", property, err)
	}
	line, err := p.readLine()
	if err != nil {
		return "", fmt.Errorf("read %s: %w", property, err)
	}
	return ParseResponse(strings.TrimSpace(string(cmd)), line)
}

// ReadFloat читает свойство с плавающей точкой
func (p *Port) ReadFloat(property string) (float64, error) {
	s, err := p.Read(property)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", property, s, err)
	}
	return v, nil
}

// ReadInt читает целочисленное свойство
func (p *Port) ReadInt(property string) (int64, error) {
	s, err := p.Read(property)
	if err != nil {
		return 0, err
	}
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("parse %s=%q: %w", property, s, err)
	}
	return v, nil
}

// Write записывает значение свойства и дожидается подтверждения.
// Прошивка молчит на успешную запись и отвечает строкой ошибки на отказ, поэтому следом
// отправляется чтение того же свойства: первая пришедшая строка — либо отказ записи, либо
// ответ на чтение. Отказ возвращается как *DeviceError с командой записи.
func (p *Port) Write(property, value string) error {
	wcmd := EncodeWrite(property, value, p.checksum)
	if _, err := p.rw.Write(wcmd); err != nil {
		return fmt.Errorf("write %s: %w", property, err)
	}
	if _, err := p.rw.Write(EncodeRead(property, p.checksum)); err != nil {
		return fmt.Errorf("write %s: %w", property, err)
	}
	line, err := p.readLine()
	if err != nil {
		return fmt.Errorf("confirm %s: %w", property, err)
	}
	if _, err := ParseResponse(strings.TrimSpace(string(wcmd)), line); err != nil {
		var de *DeviceError
		if errors.As(err, &de) {
			// отказ записи пришёл первым, за ним в потоке лежит ответ на чтение
			_, _ = p.readLine()
		}
		return err
	}
	return nil
}

// readLine читает одну строку ответа. io.EOF без новых данных означает истёкший таймаут порта.
func (p *Port) readLine() (string, error) {
	var sb strings.Builder
	for {
		chunk, err := p.rd.ReadString('\n')
		sb.WriteString(chunk)
		if err == nil {
			return sb.String(), nil
		}
		if !errors.Is(err, io.EOF) {
			return "", err
		}
		if chunk == "" {
			return "", ErrNoResponse
		}
	}
}

// Close закрывает порт и снимает блокировку
func (p *Port) Close() error {
	if p.rw == nil {
		return nil
	}
	err := p.rw.Close()
	if p.unlock != nil {
		if uerr := p.unlock(); err == nil {
			err = uerr
		}
	}
	return err
}
