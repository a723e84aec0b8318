// Package logger — единый вывод логов odrive-iq с префиксом и учётом quiet.
// Логи идут в stderr, stdout занят телеметрией.
package logger

import "log"

const prefix = "odrive-iq: "

// Quiet при true отключает информационные сообщения (Info); Error и Fatal выводятся всегда.
var Quiet bool

// Info выводит сообщение с префиксом, если Quiet == false.
func Info(format string, args ...interface{}) {
	if Quiet {
		return
	}
	log.Printf(prefix+format, args...)
}

// Error выводит сообщение об ошибке всегда.
func Error(format string, args ...interface{}) {
	log.Printf(prefix+format, args...)
}

// Fatal выводит ошибку и завершает процесс с кодом 1.
func Fatal(format string, args ...interface{}) {
	log.Fatalf(prefix+format, args...)
}
