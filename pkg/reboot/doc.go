// Package reboot detects a factory-reset gesture made by power-cycling a
// device several times in quick succession.
//
// Every boot increments a counter kept in durable storage. If the device is
// power-cycled again before the reset window elapses, the counter keeps
// growing; once it reaches the threshold the reset action runs. If the device
// stays up for the whole window, a one-shot timer deletes the counter and the
// next boot starts a new streak at 1.
//
// # State Machine
//
//	Idle --Check--> Counting        count < threshold, window timer armed
//	Idle --Check--> ResetTriggered  count >= threshold, reset action run
//	Idle --Check--> Disabled        storage could not be initialized
//	Idle --Skip---> Skipped         boot is a wakeup from sleep
//	Counting --window expiry--> Idle
//
// # Power Loss
//
// The incremented counter is written before the threshold is compared, and is
// never cleared by a sub-threshold boot. A power loss at any point leaves
// either the old or the new counter value, both of which are valid streaks.
// The window timer is volatile: if power is lost before it fires, the counter
// survives and the next boot continues the streak. That is the gesture.
package reboot
