/*
Package dialogue implements the checklist state machine.

The Controller owns at most one active checklist. Every inbound event goes through
Handle, which mutates the checklist and returns the actions the host must perform
(open a turn, end a turn, publish the report). The controller never performs I/O
and never blocks, so it can be driven directly from tests without a live bus.

	Idle --start--> AwaitingResponse --confirm/disconfirm--> AwaitingResponse
	                                  --last item---------> Finished  --> Idle
	                                  --cancel------------> Cancelled --> Idle
	                                  --not recognized----> AwaitingResponse (repeat)
*/
package dialogue
