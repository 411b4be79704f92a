// Package integration contains the ports for external collaborators.
//
// Key concepts:
//   - ShippingProvider: capability interface every carrier adapter implements
//   - TrackingStatus: carrier-neutral shipment status the order lifecycle understands
//
// Design Pattern: Ports & Adapters
//   - Ports (interfaces) are defined here in the domain layer
//   - Adapters (implementations) are in the infrastructure layer
package integration
