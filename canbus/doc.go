// Package canbus provides the classical CAN frame type shared by the log
// decoder and its consumers, together with composable frame filters.
//
// It includes:
//   - A core Frame type with validation and payload helpers
//   - FrameFilter predicates (by identifier, range, mask, payload tag)
package canbus
