package collectors

import (
	"strings"

	"github.com/shirou/gopsutil/v3/host"
)

// cpuTemperature returns the first positive sensor reading whose label
// mentions "cpu", "core" or "package", or nil if the platform exposes no
// such reading. Ported from the original Python collector's heuristic of
// scanning psutil.sensors_temperatures() for a CPU-related label.
func cpuTemperature() *float64 {
	sensors, err := host.SensorsTemperatures()
	if err != nil || len(sensors) == 0 {
		return nil
	}
	for _, s := range sensors {
		label := strings.ToLower(s.SensorKey)
		if strings.Contains(label, "cpu") || strings.Contains(label, "core") || strings.Contains(label, "package") {
			if s.Temperature > 0 {
				v := s.Temperature
				return &v
			}
		}
	}
	return nil
}
