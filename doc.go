/*
Package checklist is a Hermes (Rhasspy) skill that walks a user through a spoken checklist.

A client publishes a checklist on rhasspy/checklist/start. The skill reads each item aloud
through the dialogue manager and waits for the user to confirm, disconfirm or cancel. When the
last item is answered, or the checklist is cancelled, it publishes a report on
rhasspy/checklist/finished.

# Architecture

The state machine lives in internal/dialogue and never performs I/O: it turns decoded events
into action requests. The Skill in this package is the host around it. It subscribes to a
ports.Bus, decodes messages, serializes them into the controller and dispatches the resulting
actions back to the bus. Transports are adapters: MQTT for a real Rhasspy installation, Redis
Pub/Sub for multi-replica deployments and an in-process bus for tests and the terminal console.

# Usage

	bus, err := mqtt.Dial(ctx, mqtt.Config{Broker: "tcp://localhost:1883"})
	if err != nil {
		log.Fatal(err)
	}
	defer bus.Close()

	skill := checklist.New(bus,
		checklist.WithLogger(logger),
		checklist.WithSiteIDs("kitchen"),
	)
	if err := skill.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		log.Fatal(err)
	}

A checklist message:

	{
	  "id": "night",
	  "items": [
	    {"id": "oven", "text": "Is the oven off?"},
	    {"id": "door", "text": "Is the door locked?", "cancelIntent": "Stop"}
	  ],
	  "confirmIntent": "Yes",
	  "disconfirmIntent": "No",
	  "endText": "Good night",
	  "siteId": "kitchen"
	}

# Observability

LifecycleHooks report every start, prompt, answer and finish. The observability package turns
them into Prometheus metrics and a server-sent event stream. See WithLifecycleHooks and
WithMetrics.

Without a voice platform, a Console plays the dialogue manager on a terminal.
*/
package checklist
