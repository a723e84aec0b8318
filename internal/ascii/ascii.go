// Package ascii — построчный ASCII протокол ODrive (команды r/w, опциональная контрольная сумма).
package ascii

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// Команды протокола
const (
	CmdRead  = 'r'
	CmdWrite = 'w'
)

// ChecksumSep отделяет контрольную сумму от тела строки: "r vbus_voltage*93"
const ChecksumSep = '*'

var (
	// ErrChecksumMismatch — контрольная сумма ответа не совпала
	ErrChecksumMismatch = errors.New("ascii checksum mismatch")
	// ErrNoResponse — устройство не ответило за время таймаута чтения
	ErrNoResponse = errors.New("ascii: no response")
)

// Ответы прошивки, которыми она сообщает об ошибке команды.
var deviceErrors = []string{
	"invalid property",
	"invalid command format",
	"invalid value",
	"unknown command",
}

// DeviceError — устройство отвергло команду
type DeviceError struct {
	Command string
	Reply   string
}

func (e *DeviceError) Error() string {
	return fmt.Sprintf("device rejected %q: %s", e.Command, e.Reply)
}

// Checksum вычисляет контрольную сумму: XOR всех байт строки
func Checksum(line string) uint8 {
	var cs uint8
	for i := 0; i < len(line); i++ {
		cs ^= line[i]
	}
	return cs
}

// EncodeRead собирает команду чтения свойства
func EncodeRead(property string, withChecksum bool) []byte {
	return encode(fmt.Sprintf("%c %s", CmdRead, property), withChecksum)
}

// EncodeWrite собирает команду записи свойства
func EncodeWrite(property, value string, withChecksum bool) []byte {
	return encode(fmt.Sprintf("%c %s %s", CmdWrite, property, value), withChecksum)
}

func encode(body string, withChecksum bool) []byte {
	if withChecksum {
		body = fmt.Sprintf("%s%c%d", body, ChecksumSep, Checksum(body))
	}
	return []byte(body + "\n")
}

// ParseResponse разбирает строку ответа: отрезает CR/LF, проверяет контрольную сумму (если есть),
// распознаёт ошибки прошивки. cmd нужен только для текста ошибки.
func ParseResponse(cmd, line string) (string, error) {
	line = strings.TrimRight(line, "\r\n")
	if i := strings.LastIndexByte(line, ChecksumSep); i >= 0 {
		cs, err := strconv.ParseUint(line[i+1:], 10, 8)
		if err != nil || uint8(cs) != Checksum(line[:i]) {
			return "", fmt.Errorf("%w: %q", ErrChecksumMismatch, line)
		}
		line = line[:i]
	}
	line = strings.TrimSpace(line)
	for _, e := range deviceErrors {
		if line == e {
			return "", &DeviceError{Command: cmd, Reply: line}
		}
	}
	return line, nil
}

// FormatFloat — значение для команды записи
func FormatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 32)
}
