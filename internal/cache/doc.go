// Package cache stores downloaded audio and derived transcripts locally,
// bounded by a total-size quota. Eviction is strictly FIFO by insertion
// time: reads never refresh a record's age, and whole records are evicted
// together (audio plus transcript).
package cache
