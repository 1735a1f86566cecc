package led

import (
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const deviceTreeModelPath = "/proc/device-tree/model"

// Raspberry Pi activity LED names: "ACT" on current kernels, "led0" on older ones.
var piActivityLEDs = []string{"ACT", "led0"}

// New creates a new LED controller based on board detection
// Falls back to no-op controller if LEDs are not available.
func New(logger *slog.Logger) Controller {
	if logger == nil {
		logger = slog.Default()
	}
	return newForBoard(detectBoard(), sysfsLEDPath, logger)
}

func newForBoard(boardModel, root string, logger *slog.Logger) Controller {
	logger.Info("Detecting board for LED control", "board_model", boardModel)

	if strings.Contains(boardModel, "Raspberry Pi") {
		for _, name := range piActivityLEDs {
			if _, err := os.Stat(filepath.Join(root, name)); err == nil {
				logger.Info("Detected Raspberry Pi, using sysfs LED controller", "led", name)
				return newSysfsAt(root, map[string]string{StatusLED: name})
			}
		}
	}

	logger.Info("No LED support detected, using no-op controller", "board_model", boardModel)
	return newNoop(logger)
}

// detectBoard reads the device tree model to identify the board.
func detectBoard() string {
	data, err := os.ReadFile(deviceTreeModelPath)
	if err != nil {
		return "unknown"
	}

	// Device tree model contains null bytes, trim them
	return strings.TrimRight(string(data), "\x00")
}
