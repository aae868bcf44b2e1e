package common

// Key is a keyboard key as reported by the window key callbacks. Printable keys use their upper
// case ASCII value, the rest use GLFW key numbers.
type Key = uint32

// Keys used by the example programs.
const (
	KeySpace Key = 32
	KeyA     Key = 65
	KeyB     Key = 66
	KeyD     Key = 68
	KeyF     Key = 70
	KeyS     Key = 83
	KeyW     Key = 87
	KeyEsc   Key = 256
)
