// odrive-iq — находит ODrive, переводит ось в токовое управление (closed loop, уставка 0 A)
// и бесконечно печатает измеренный ток Iq с обратным знаком, по одному числу в строке.
//
// Использование:
//
//	odrive-iq                            — автопоиск по USB, ось 0, без паузы между чтениями
//	odrive-iq -port /dev/ttyACM0 -axis 1 — явный порт
//	odrive-iq -interval 100ms            — пауза между чтениями
//	odrive-iq -config odrive-iq.yml      — настройки из YAML
//
// Телеметрия идёт в stdout, диагностика в stderr. Остановка — только сигналом или ошибкой устройства.
package main

import (
	"context"
	"flag"
	"os"

	"github.com/shiwa/odrive-iq/internal/config"
	"github.com/shiwa/odrive-iq/internal/logger"
	"github.com/shiwa/odrive-iq/pkg/iqmonitor"
)

func main() {
	configPath := flag.String("config", "", "путь к YAML конфигу (по умолчанию odrive-iq.yml, если есть)")
	port := flag.String("port", "", "последовательный порт (переопределяет config; пусто = поиск по USB)")
	baud := flag.Int("baud", 0, "скорость порта (переопределяет config)")
	axis := flag.Int("axis", -1, "номер оси 0 или 1 (переопределяет config)")
	interval := flag.String("interval", "", "пауза между чтениями Iq, например 100ms (переопределяет config)")
	findTimeout := flag.String("find-timeout", "", "сколько ждать появления устройства (пусто = бесконечно)")
	checksum := flag.Bool("checksum", false, "контрольная сумма в ASCII протоколе")
	verify := flag.Bool("verify", false, "проверить axis.error после настройки")
	quiet := flag.Bool("quiet", false, "меньше вывода")
	flag.Parse()

	logger.Quiet = *quiet

	cfg, err := loadConfig(*configPath)
	if err != nil {
		logger.Fatal("config: %v", err)
	}

	if *port != "" {
		cfg.Device.Port = *port
	}
	if *baud != 0 {
		cfg.Device.Baud = *baud
	}
	if *axis >= 0 {
		cfg.Axis = *axis
	}
	if *interval != "" {
		cfg.Monitor.Interval = *interval
	}
	if *findTimeout != "" {
		cfg.Discovery.Timeout = *findTimeout
	}
	if *checksum {
		cfg.Device.Checksum = true
	}
	if *verify {
		cfg.Monitor.Verify = true
	}
	if err := cfg.Validate(); err != nil {
		logger.Fatal("config: %v", err)
	}

	r, err := iqmonitor.New(cfg, os.Stdout)
	if err != nil {
		logger.Fatal("%v", err)
	}
	// Корректного завершения нет: SIGINT/SIGTERM убивают процесс штатно.
	if err := r.Run(context.Background()); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}

func loadConfig(path string) (*config.Config, error) {
	explicit := path != ""
	if !explicit {
		path = "odrive-iq.yml"
	}
	if _, err := os.Stat(path); os.IsNotExist(err) && !explicit {
		return config.Default(), nil
	}
	return config.Load(path)
}
