package model

import "time"

const EnvelopeVersion = "v1"

type Envelope struct {
	Version  string       `json:"version"`
	Success  bool         `json:"success"`
	Data     any          `json:"data,omitempty"`
	Error    *ErrorBody   `json:"error"`
	Warnings []string     `json:"warnings,omitempty"`
	Meta     EnvelopeMeta `json:"meta"`
}

type ErrorBody struct {
	Code    int    `json:"code"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

type EnvelopeMeta struct {
	RequestID string    `json:"request_id"`
	SessionID string    `json:"session_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Command   string    `json:"command"`
}

// ValidationReport is the canvas verdict shown before building a flow.
type ValidationReport struct {
	Protocols     int     `json:"protocols"`
	Tokens        int     `json:"tokens"`
	Actions       int     `json:"actions"`
	Total         int     `json:"total"`
	Valid         bool    `json:"valid"`
	Report        string  `json:"report"`
	Status        string  `json:"status"`
	DisplayGas    int64   `json:"display_gas"`
	DisplayGasETH float64 `json:"display_gas_eth"`
}

type PriceTick struct {
	Tick         int                `json:"tick"`
	Prices       map[string]float64 `json:"prices"`
	GasPriceGwei float64            `json:"gas_price_gwei"`
	UpdatedAt    string             `json:"updated_at"`
}

// WorkflowSummary reports a save, load, clear, export or import.
type WorkflowSummary struct {
	Action    string `json:"action"`
	Blocks    int    `json:"blocks"`
	Valid     bool   `json:"valid"`
	Key       string `json:"key,omitempty"`
	Path      string `json:"path,omitempty"`
	CreatedAt int64  `json:"created_at,omitempty"`
	Tiles     any    `json:"tiles,omitempty"`
}
