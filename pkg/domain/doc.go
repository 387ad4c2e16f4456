/*
Package domain contains the core domain models of the checklist skill.

It defines the checklist being worked through, the dialogue events that drive it,
the actions the controller asks the host to perform and the final report. This
package is kept pure and free of I/O, following Hexagonal Architecture principles.

# Key Entities

  - ChecklistItem: A single spoken prompt plus its optional intent overrides.
  - Checklist: The runtime snapshot of one in-flight checklist (cursor, confirmed ids, status).
  - Event: A decoded inbound message (start request or dialogue event).
  - ActionRequest: A structural representation of what the host should say, end or publish.
  - FinishedMessage: The terminal report for a checklist.
*/
package domain
