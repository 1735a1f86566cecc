package led

// StatusLED is the LED type used for the node's health indication.
const StatusLED = "status"

// Controller abstracts LED hardware control on the HUD's single board computer.
type Controller interface {
	// Set controls an LED's state and optional pattern
	// Parameters:
	//   ledType: LED identifier (e.g., "status")
	//   enabled: whether the LED should be on or off
	//   pattern: optional blinking pattern ("solid", "blink", "heartbeat")
	//            empty string means no pattern change
	Set(ledType string, enabled bool, pattern string) error

	// Available returns the list of LED types supported by this controller
	Available() []string

	// Patterns returns the list of patterns supported by this controller
	Patterns() []string
}
