/*
Package evrc reads an electronic Vehicle Registration Certificate (eVRC) from a
smart card and assembles it into a Registration.

# Card Layout

The eVRC application is selected by its AID 'A0 00 00 04 56 45 56 52 2D 30 31'
("...VEVR-01"). Below it, four transparent EFs are read with READ BINARY:

  - FSOd ('00 1D'): the signature over the registration data.
  - RegistrationA ('D0 01'): mandatory registration data.
  - RegistrationB ('D0 11'): optional registration data.
  - RegistrationC ('D0 21'): national data.

Each registration file is a sequence of BER-TLV objects. Their primitive values
are flattened into a tag to value mapping (Fields) and projected onto the
Registration struct, whose fields declare their source tag with `tlv:"..."`.

# Error Tiers

A Session fails as a whole only when the card is not an eVRC
(*UnexpectedApplicationError) or when the application cannot be selected.
Problems with a single file (selection refused, malformed FCP, malformed TLV)
are recorded as a *FileError in the Result and the affected fields keep the
NotFound placeholder.

# Usage

	session := evrc.NewSession(card, evrc.Config{Debug: true})
	reg, err := session.Read()
	if err != nil {
	    return err
	}
	fmt.Println(reg.RegistrationNumber)
*/
package evrc

import "github.com/sirupsen/logrus"

var logger = logrus.WithField("component", "evrc")
