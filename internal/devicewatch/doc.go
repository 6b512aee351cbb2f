// Package devicewatch listens for udev netlink events so a docked evidence
// drive can trigger a batch ingest without manual intervention.
package devicewatch
