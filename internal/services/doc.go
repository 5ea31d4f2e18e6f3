// Package services holds the dashboard business layer: batch consolidation,
// chart selection and health reporting. Transport packages call into it and
// never touch the parsing or chart packages directly.
package services
