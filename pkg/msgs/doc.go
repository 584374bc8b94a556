// Package msgs defines the messages a SENT decoder node publishes.
//
// Every message is carried in a Typed envelope so a subscriber can
// decode any topic without knowing its schema in advance.
//
// Producer: sentd
// Consumer: sentmon, dashboards
package msgs
