// Package queue implements the at-least-once work queue between webhook
// admission and transcription.
//
// Messages live in the sqlite queue_messages table. Dequeue leases a message
// for the visibility timeout and hands out a fresh receipt; Ack deletes it and
// Nack releases it for redelivery. A message that has been received
// max_receives times is moved to dead_letters on its next failure or lease
// expiry, and every move raises the dead-letter alarm. Operators inspect,
// redrive, and purge dead letters through the same Store.
//
// There is no ordering guarantee across messages.
package queue
