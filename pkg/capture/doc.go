// Package capture feeds recorded or live edge-interval captures into
// SENT decoders.
package capture

// A capture source produces one Sample per falling edge: the number of
// timer clocks since the previous edge and whether the capture hardware
// overflowed in between. Live sources (serial capture boards, websocket
// bridges) stream 4-byte binary records, replay files may also use the
// line oriented text form.
