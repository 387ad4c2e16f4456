/*
Package hermes defines the subset of the Hermes MQTT protocol spoken by the checklist skill.

Hermes is the message protocol of the Rhasspy voice assistant: the dialogue manager
opens sessions, speaks text, and reports recognized intents on well-known topics.
Only JSON payload shapes and topic names live here; transport concerns belong to the
bus adapters.
*/
package hermes
