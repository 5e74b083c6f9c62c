package link

import (
	"testing"
	"time"
)

func TestDefaultConfig(t *testing.T) {
	config := DefaultConfig()

	if config.BaudRate != 9600 {
		t.Errorf("BaudRate = %d, want 9600", config.BaudRate)
	}
	if config.DataBits != 8 {
		t.Errorf("DataBits = %d, want 8", config.DataBits)
	}
	if config.StopBits != 1 {
		t.Errorf("StopBits = %d, want 1", config.StopBits)
	}
	if config.Parity != ParityNone {
		t.Errorf("Parity = %v, want ParityNone", config.Parity)
	}
	if config.ReadTimeout != 100*time.Millisecond {
		t.Errorf("ReadTimeout = %v, want 100ms", config.ReadTimeout)
	}
	if config.InitialDTR != nil || config.InitialRTS != nil {
		t.Error("initial signal states should be unset by default")
	}
}

func TestWithReadTimeout(t *testing.T) {
	tests := []struct {
		name    string
		timeout time.Duration
		wantErr bool
	}{
		{"0ms (non-blocking)", 0, false},
		{"100ms (valid)", 100 * time.Millisecond, false},
		{"500ms (valid)", 500 * time.Millisecond, false},
		{"2500ms (valid)", 2500 * time.Millisecond, false},
		{"25500ms (max)", 25500 * time.Millisecond, false},
		{"150ms (not multiple of 100ms)", 150 * time.Millisecond, true},
		{"250ns (not multiple of 100ms)", 250 * time.Nanosecond, true},
		{"25600ms (exceeds max)", 25600 * time.Millisecond, true},
		{"-100ms (negative)", -100 * time.Millisecond, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			config := DefaultConfig()
			opt := WithReadTimeout(tt.timeout)
			err := opt(&config)
			if (err != nil) != tt.wantErr {
				t.Errorf("WithReadTimeout(%v) error = %v, wantErr %v", tt.timeout, err, tt.wantErr)
			}
			if err == nil && config.ReadTimeout != tt.timeout {
				t.Errorf("ReadTimeout = %v, want %v", config.ReadTimeout, tt.timeout)
			}
		})
	}
}

func TestWithBaudRate(t *testing.T) {
	tests := []struct {
		rate    int
		wantErr bool
	}{
		{9600, false},
		{115200, false},
		{300, false},
		{230400, false},
		{12345, true},
		{0, true},
		{-9600, true},
	}

	for _, tt := range tests {
		config := DefaultConfig()
		err := WithBaudRate(tt.rate)(&config)
		if (err != nil) != tt.wantErr {
			t.Errorf("WithBaudRate(%d) error = %v, wantErr %v", tt.rate, err, tt.wantErr)
		}
		if err == nil && config.BaudRate != tt.rate {
			t.Errorf("BaudRate = %d, want %d", config.BaudRate, tt.rate)
		}
	}
}

func TestWithInitialSignals(t *testing.T) {
	config := DefaultConfig()

	if err := WithInitialDTR(true)(&config); err != nil {
		t.Fatalf("WithInitialDTR failed: %v", err)
	}
	if err := WithInitialRTS(false)(&config); err != nil {
		t.Fatalf("WithInitialRTS failed: %v", err)
	}

	if config.InitialDTR == nil || *config.InitialDTR != true {
		t.Error("InitialDTR should be set to true")
	}
	if config.InitialRTS == nil || *config.InitialRTS != false {
		t.Error("InitialRTS should be set to false")
	}
}
