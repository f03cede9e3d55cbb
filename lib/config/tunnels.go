package config

import "strconv"

// Tunnel is a tunnel profile: the length and redundancy knobs the overlay
// offers for a session's inbound and outbound paths. All counts are small
// (the bridge caps them at u8 range).
type Tunnel struct {
	InLength          uint8  `koanf:"in_length" yaml:"in_length"`
	InQuantity        uint8  `koanf:"in_quantity" yaml:"in_quantity"`
	InBackupQuantity  uint8  `koanf:"in_backup_quantity" yaml:"in_backup_quantity"`
	OutLength         uint8  `koanf:"out_length" yaml:"out_length"`
	OutQuantity       uint8  `koanf:"out_quantity" yaml:"out_quantity"`
	OutBackupQuantity uint8  `koanf:"out_backup_quantity" yaml:"out_backup_quantity"`
	RandomKey         string `koanf:"random_key,omitempty" yaml:"random_key,omitempty"`
	Name              string `koanf:"name" yaml:"name"`
}

// DefaultTunnel returns a balanced three-hop profile named "default".
func DefaultTunnel() Tunnel {
	return Tunnel{
		InLength:          3,
		InQuantity:        3,
		InBackupQuantity:  1,
		OutLength:         3,
		OutQuantity:       3,
		OutBackupQuantity: 1,
		Name:              "default",
	}
}

// SessionOptions maps the profile onto SESSION CREATE option pairs.
// Fast receive is always on and reply info bundling always off; both are
// relay-friendly settings the peer cannot observe.
func (t Tunnel) SessionOptions() []string {
	opts := []string{
		"inbound.length=" + strconv.Itoa(int(t.InLength)),
		"inbound.quantity=" + strconv.Itoa(int(t.InQuantity)),
		"inbound.backupQuantity=" + strconv.Itoa(int(t.InBackupQuantity)),
		"outbound.length=" + strconv.Itoa(int(t.OutLength)),
		"outbound.quantity=" + strconv.Itoa(int(t.OutQuantity)),
		"outbound.backupQuantity=" + strconv.Itoa(int(t.OutBackupQuantity)),
		"i2cp.fastReceive=true",
		"shouldBundleReplyInfo=false",
	}
	if t.RandomKey != "" {
		opts = append(opts,
			"inbound.randomKey="+t.RandomKey,
			"outbound.randomKey="+t.RandomKey,
		)
	}
	return opts
}
