// Package admission turns an inbound skill invocation into a validated work
// item. It parses the payload, verifies the delivery signature, and checks
// the source file extension against the supported audio and video
// containers. Admission has no side effects; callers decide whether to
// enqueue the result.
package admission
