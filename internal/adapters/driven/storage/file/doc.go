// Package file keeps the notification history in a single JSON document.
//
// The document maps each scenario to its array of entries:
//
//	{
//	  "sent_for_translation": [
//	    {"date": "2024-05-01T10:00:00.000Z", "request_ids": [42, 43]},
//	    {"date": "...", "recipient": "...", "subject": "...",
//	     "request_ids": ["44"], "changeDatesByRequestId": {"44": "..."}}
//	  ]
//	}
//
// Writes are read-modify-write under a process-local mutex and replace the
// file atomically. Writers in other processes are not coordinated.
package file
