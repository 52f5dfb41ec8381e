// timesheetctl runs the maintenance tasks of the timesheet service from a
// shell: schema migration, provider sync, daily close and offline previews.
package main

import _ "time/tzdata"

func main() {
	Execute()
}
