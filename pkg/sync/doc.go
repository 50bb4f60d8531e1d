/*
The sync package implements pasync's push algorithm. Pushing happens in two
phases:

1) Planning -- PlanDir walks the local tree, applies the exclusion patterns,
   and maps every surviving path to its remote counterpart. The output is an
   ordered Plan in which a directory's creation always precedes anything
   written beneath it. PlanFile does the same for a single file. Planning
   never talks to the remote: a plan is a plain value, so the ordering can
   be tested without any I/O.

2) Execution -- Execute feeds the plan to the StorageClient. Remote failures
   are collected per action instead of aborting the run, so a single bad
   file doesn't block the rest of the tree. If auto-reload is on and at
   least one upload succeeded, the remote service is reloaded once at the
   end.

Paths inside a plan always use forward slashes. The remote API is a single
canonical namespace, so the host platform's separator never leaks into it.
*/
package sync
