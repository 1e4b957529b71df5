// Package services holds the pack workflows behind the driving ports:
// ingestion, catalog, download paging, search, client sync and scheduled
// re-ingestion. Services only talk to storage, models and the network
// through driven ports.
package services
