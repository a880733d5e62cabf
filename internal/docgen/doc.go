// Package docgen assembles the generated-document payload and drives a
// document generation batch to completion under a deadline.
package docgen
