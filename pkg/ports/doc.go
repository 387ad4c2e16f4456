/*
Package ports defines the driven ports (interfaces) of the checklist skill.

These interfaces decouple the dialogue logic from the transports and coordination
backends, allowing the skill to run over MQTT, Redis Pub/Sub or an in-process bus.

# Key Interfaces

  - Bus: Topic based publish/subscribe transport carrying Hermes messages.
  - ActionDispatcher: Executes the side-effects requested by the dialogue controller.
  - Claimer: Lets several replicas agree on which one runs a given checklist.
  - ChecklistService: The surface driven by the HTTP and MCP front-ends.
*/
package ports
