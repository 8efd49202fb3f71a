/*
Package ports defines the driven ports (interfaces) of the dna orchestrator.

These interfaces decouple the conversation core from external collaborators,
allowing the orchestrator to work with various model servers, storage
backends and execution transports.

# Key Interfaces

  - Completer: the language-model completion service.
  - Executor: runs a resolved ExecSpec and returns a Result record.
  - TimeRangeParser: infers meeting time ranges from free text.
  - Store: persists per-conversation values (transcripts, pending clarifications).
  - DistributedLocker: serializes access to one conversation across replicas.
*/
package ports
