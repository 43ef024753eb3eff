/*
Copyright (C) 2019-2020 Andreas T Jonsson

This program is free software: you can redistribute it and/or modify
it under the terms of the GNU General Public License as published by
the Free Software Foundation, either version 3 of the License, or
(at your option) any later version.

This program is distributed in the hope that it will be useful,
but WITHOUT ANY WARRANTY; without even the implied warranty of
MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the
GNU General Public License for more details.

You should have received a copy of the GNU General Public License
along with this program.  If not, see <http://www.gnu.org/licenses/>.
*/

package version

import "fmt"

type Version struct {
	Major, Minor, Patch byte
	Build               string
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

func (v Version) FullString() string {
	if v.Build == "" {
		return v.String()
	}
	return fmt.Sprintf("%s-%s", v.String(), v.Build)
}

var (
	Current   = Version{0, 1, 0, ""}
	Copyright = "Copyright (C) 2019-2020 Andreas T Jonsson"
)
