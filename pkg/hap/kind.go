// SPDX-License-Identifier: BSD-3-Clause

package hap

import "fmt"

// Tier classifies a Kind by severity. Downstream consumers (LED, database
// logger, remote-event sender) use it to decide how loudly to react; the bus
// itself does not prescribe handling.
type Tier int

const (
	// Informational haps report routine operation.
	Informational Tier = iota
	// Warning haps report a retryable condition.
	Warning
	// FaultHypothesis haps report a suspected, not yet confirmed, hardware fault.
	FaultHypothesis
	// Critical haps report a missing reading that leaves a controller
	// without its outside-of-box reference temperature.
	Critical
)

// String returns the tier's name.
func (t Tier) String() string {
	switch t {
	case Informational:
		return "informational"
	case Warning:
		return "warning"
	case FaultHypothesis:
		return "fault_hypothesis"
	case Critical:
		return "critical"
	default:
		return fmt.Sprintf("Tier(%d)", t)
	}
}

// Kind is a closed enumeration of every diagnostic event a heater
// controller can emit.
type Kind int

const (
	// HeaterOn reports the heater output was asserted.
	HeaterOn Kind = iota
	// HeaterOff reports the heater output was deasserted.
	HeaterOff
	// HeaterWorking reports a confirmed temperature rise/drop attributable to the heater.
	HeaterWorking
	// SSRWorking reports the SSR sense-relay cross-check passed.
	SSRWorking
	// SenseRelayWorking reports the sense relay latched as expected.
	SenseRelayWorking
	// HeaterNoStart reports a confirm-on timeout: the heater did not demonstrably start.
	HeaterNoStart
	// PossibleHeaterFailure hypothesizes a failed heating element after repeated no-starts.
	PossibleHeaterFailure
	// PossibleSSRFailure hypothesizes a failed SSR.
	PossibleSSRFailure
	// PossibleSenseRelayFailure hypothesizes a failed sense relay.
	PossibleSenseRelayFailure
	// PossibleSSROrSenseRelayFailure hypothesizes one of the SSR or sense relay, undetermined which.
	PossibleSSROrSenseRelayFailure
	// NoTemperatureOutsideTheBox reports no usable ambient or outside reading. NoTemps then forces the
	// heater off; HeaterOnly keeps heating, using its starting heater temperature in place of the reading.
	NoTemperatureOutsideTheBox
)

var kindNames = map[Kind]string{
	HeaterOn:                       "HEATER_ON",
	HeaterOff:                      "HEATER_OFF",
	HeaterWorking:                  "HEATER_WORKING",
	SSRWorking:                     "SSR_WORKING",
	SenseRelayWorking:              "SENSE_RELAY_WORKING",
	HeaterNoStart:                  "HEATER_NO_START",
	PossibleHeaterFailure:          "POSSIBLE_HEATER_FAILURE",
	PossibleSSRFailure:             "POSSIBLE_SSR_FAILURE",
	PossibleSenseRelayFailure:      "POSSIBLE_SENSE_RELAY_FAILURE",
	PossibleSSROrSenseRelayFailure: "POSSIBLE_SSR_OR_SENSE_RELAY_FAILURE",
	NoTemperatureOutsideTheBox:     "NO_TEMPERATURE_OUTSIDE_THE_BOX",
}

var kindTiers = map[Kind]Tier{
	HeaterOn:                       Informational,
	HeaterOff:                      Informational,
	HeaterWorking:                  Informational,
	SSRWorking:                     Informational,
	SenseRelayWorking:              Informational,
	HeaterNoStart:                  Warning,
	PossibleHeaterFailure:          FaultHypothesis,
	PossibleSSRFailure:             FaultHypothesis,
	PossibleSenseRelayFailure:      FaultHypothesis,
	PossibleSSROrSenseRelayFailure: FaultHypothesis,
	NoTemperatureOutsideTheBox:     Critical,
}

// String returns the hap's wire name, matching the vocabulary in the
// taxonomy this package implements.
func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("Kind(%d)", k)
}

// Tier returns the severity tier of k.
func (k Kind) Tier() Tier {
	if t, ok := kindTiers[k]; ok {
		return t
	}
	return Informational
}
