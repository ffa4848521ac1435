package domain

// ValueUnknown marks an inventory field that was absent from the API response.
const ValueUnknown = "N/A"

type OSFamily string

const (
	OSLinux   OSFamily = "Linux"
	OSWindows OSFamily = "Windows"
	OSUnknown OSFamily = "Unknown"
)

func ParseOSFamily(osType string) OSFamily {
	switch osType {
	case "Linux":
		return OSLinux
	case "Windows":
		return OSWindows
	default:
		return OSUnknown
	}
}

// VirtualMachine is one compute instance as reported by the inventory API.
// Name is the case-insensitive join key used by the reconciler.
type VirtualMachine struct {
	ID       string
	Name     string
	Location string
	Size     string
	OS       OSFamily
}
