// SPDX-License-Identifier: BSD-3-Clause

package heatermgr

// State enumerates every state used by any of the four controller
// variants. A given variant's FSM only declares the subset of states and
// transitions it actually uses.
type State int

const (
	StateOff State = iota
	StateConfirmSSROn
	StateConfirmHeaterOn
	StateOn
	StateConfirmSSROff
	StateConfirmHeaterOff
	StateCooling
	StateHeaterCooling
	StateWaitForTrigger
)

func (s State) String() string {
	switch s {
	case StateOff:
		return "OFF"
	case StateConfirmSSROn:
		return "CONFIRM_SSR_ON"
	case StateConfirmHeaterOn:
		return "CONFIRM_HEATER_ON"
	case StateOn:
		return "ON"
	case StateConfirmSSROff:
		return "CONFIRM_SSR_OFF"
	case StateConfirmHeaterOff:
		return "CONFIRM_HEATER_OFF"
	case StateCooling:
		return "COOLING"
	case StateHeaterCooling:
		return "HEATER_COOLING"
	case StateWaitForTrigger:
		return "WAIT_FOR_TRIGGER"
	default:
		return "UNKNOWN"
	}
}

// Event enumerates every event used by any of the four controller
// variants.
type Event int

const (
	EventLoBatteryTemp Event = iota
	EventHiBatteryTemp
	EventHiHeaterTemp
	EventOnSensed
	EventOffSensed
	EventHeaterTempRise
	EventHeaterTempDrop
	EventNoTempRise
	EventNoTempDrop
	EventCooled
	EventReset
	// EventHeated is HeaterOnly's open-loop "computed duration elapsed"
	// event; it plays the same role as EventHiBatteryTemp in Normal.
	EventHeated
	// EventTurnOff and EventTrigger are NoTemps' scheduled open-loop
	// events (§4.6).
	EventTurnOff
	EventTrigger
	// EventLowTrigger is the generic "start heating" event posted from a
	// tick: LO_BATTERY_TEMP in Normal/BatteryOnly, the heater-thermocouple
	// proxy in HeaterOnly, and the ambient/outside read in NoTemps.
	EventLowTrigger
)

func (e Event) String() string {
	switch e {
	case EventLoBatteryTemp:
		return "LO_BATTERY_TEMP"
	case EventHiBatteryTemp:
		return "HI_BATTERY_TEMP"
	case EventHiHeaterTemp:
		return "HI_HEATER_TEMP"
	case EventOnSensed:
		return "ON_SENSED"
	case EventOffSensed:
		return "OFF_SENSED"
	case EventHeaterTempRise:
		return "HEATER_TEMP_RISE"
	case EventHeaterTempDrop:
		return "HEATER_TEMP_DROP"
	case EventNoTempRise:
		return "NO_TEMP_RISE"
	case EventNoTempDrop:
		return "NO_TEMP_DROP"
	case EventCooled:
		return "COOLED"
	case EventReset:
		return "RESET"
	case EventHeated:
		return "HEATED"
	case EventTurnOff:
		return "TURN_OFF"
	case EventTrigger:
		return "TRIGGER"
	case EventLowTrigger:
		return "LOW_TRIGGER"
	default:
		return "UNKNOWN"
	}
}
