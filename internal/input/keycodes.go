package input

// Commonly used key codes from uapi/linux/input-event-codes.h.
//
// The keymap tree stores codes numerically; this table exists so the
// API and event feed can show a recognisable name next to the number.
const (
	KeyEsc        uint16 = 1
	Key1          uint16 = 2
	Key2          uint16 = 3
	Key3          uint16 = 4
	Key4          uint16 = 5
	Key5          uint16 = 6
	Key6          uint16 = 7
	Key7          uint16 = 8
	Key8          uint16 = 9
	Key9          uint16 = 10
	Key0          uint16 = 11
	KeyEnter      uint16 = 28
	KeyA          uint16 = 30
	KeyS          uint16 = 31
	KeyD          uint16 = 32
	KeyF          uint16 = 33
	KeySpace      uint16 = 57
	KeyUp         uint16 = 103
	KeyPageUp     uint16 = 104
	KeyLeft       uint16 = 105
	KeyRight      uint16 = 106
	KeyDown       uint16 = 108
	KeyPageDown   uint16 = 109
	KeyMute       uint16 = 113
	KeyVolumeDown uint16 = 114
	KeyVolumeUp   uint16 = 115
	KeyPower      uint16 = 116
	KeyPause      uint16 = 119
	KeyStop       uint16 = 128
	KeyMenu       uint16 = 139
	KeyBack       uint16 = 158
	KeyHomepage   uint16 = 172
	KeyRewind     uint16 = 168
	KeyFastFwd    uint16 = 208
	KeyPlay       uint16 = 207
	KeyRecord     uint16 = 167
	KeyChannelUp  uint16 = 402
	KeyChannelDn  uint16 = 403
	KeyOK         uint16 = 352
	KeyInfo       uint16 = 358
)

// keyNames maps key codes to their kernel names.
var keyNames = map[uint16]string{
	KeyEsc:        "KEY_ESC",
	Key1:          "KEY_1",
	Key2:          "KEY_2",
	Key3:          "KEY_3",
	Key4:          "KEY_4",
	Key5:          "KEY_5",
	Key6:          "KEY_6",
	Key7:          "KEY_7",
	Key8:          "KEY_8",
	Key9:          "KEY_9",
	Key0:          "KEY_0",
	KeyEnter:      "KEY_ENTER",
	KeyA:          "KEY_A",
	KeyS:          "KEY_S",
	KeyD:          "KEY_D",
	KeyF:          "KEY_F",
	KeySpace:      "KEY_SPACE",
	KeyUp:         "KEY_UP",
	KeyPageUp:     "KEY_PAGEUP",
	KeyLeft:       "KEY_LEFT",
	KeyRight:      "KEY_RIGHT",
	KeyDown:       "KEY_DOWN",
	KeyPageDown:   "KEY_PAGEDOWN",
	KeyMute:       "KEY_MUTE",
	KeyVolumeDown: "KEY_VOLUMEDOWN",
	KeyVolumeUp:   "KEY_VOLUMEUP",
	KeyPower:      "KEY_POWER",
	KeyPause:      "KEY_PAUSE",
	KeyStop:       "KEY_STOP",
	KeyMenu:       "KEY_MENU",
	KeyBack:       "KEY_BACK",
	KeyHomepage:   "KEY_HOMEPAGE",
	KeyRewind:     "KEY_REWIND",
	KeyFastFwd:    "KEY_FASTFORWARD",
	KeyPlay:       "KEY_PLAY",
	KeyRecord:     "KEY_RECORD",
	KeyChannelUp:  "KEY_CHANNELUP",
	KeyChannelDn:  "KEY_CHANNELDOWN",
	KeyOK:         "KEY_OK",
	KeyInfo:       "KEY_INFO",
}

// KeyName returns the kernel name for a key code, or "" if the code is
// not in the table. Codes outside the table are still valid keycodes.
func KeyName(code uint16) string {
	return keyNames[code]
}

// KeyNames returns a copy of the full code-to-name table.
func KeyNames() map[uint16]string {
	out := make(map[uint16]string, len(keyNames))
	for code, name := range keyNames {
		out[code] = name
	}
	return out
}
