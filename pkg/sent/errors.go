package sent

import "errors"

var (
	// ErrSlowChannelFull indicates a new slow-channel ID arrived while
	// every slot of the table holds another ID.
	ErrSlowChannelFull = errors.New("slow channel table full")
)
