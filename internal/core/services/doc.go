// Package services contains the core retrieval logic: score fusion, the
// hybrid retrieval pipeline and the evaluation runner. Services depend
// only on domain types and ports, never on concrete adapters.
package services
