/*
Package iso7816 implements data structures and logic to interact with smart cards according to the ISO/IEC 7816 standard.

This package provides the fundamental building blocks for APDU (Application Protocol Data Unit) communication, including Command and Response structures, Status Word (SW) analysis, and specialized parsers for File Control Information (FCI).

# Fundamentals

The communication with a smart card is strictly synchronous:
 1. The Host sends a Command APDU (Header + Optional Body).
 2. The Card processes it and returns a Response APDU (Optional Body + Trailer SW1/SW2).

# Status Words

Every response ends with a 2-byte Status Word (SW).
  - 0x9000: Success (OK).
  - 0x61XX: Success, but response data is still available (XX bytes).
  - 0x6CXX: Error, wrong length expectation (XX is the correct length).
  - Other: Various error conditions.

# File Selection and FCI

One of the most complex aspects of ISO 7816 is the SELECT command (0xA4). The response to a selection depends heavily on the P2 parameter. This package abstracts this complexity via the `SelectResult` and `ParseSelectData` utilities, which handle:

  - FCP (File Control Parameters) - Tag '62'
  - FMD (File Management Data) - Tag '64'
  - FCI (File Control Information) - Tag '6F'
  - Proprietary Data - Tag 'C0' or 'A5'

# Usage Example: Reading a Transparent EF

The Client wraps any Transmitter (a PC/SC card handle, a scripted fake in tests).
Exchange only accepts '90 00' and returns the data field without the trailer.

	client := iso7816.NewClient(card, iso7816.WithDebug(true))

	fcpData, err := client.Exchange(iso7816.SelectFileByID(iso7816.Class{}, 0xD001))
	if err != nil {
	    var sw *iso7816.UnsuccessfulResponse
	    if errors.As(err, &sw) {
	        log.Printf("card refused the selection: %s", sw.Status().Verbose())
	    }
	    return err
	}

	node, _, err := tlv.Parse(fcpData)
	if err != nil {
	    return err
	}
	fcp, err := iso7816.ParseFCP(node)
	if err != nil {
	    return err
	}
	size, _ := fcp.FileSize()

	read, _ := iso7816.ReadBinary(iso7816.Class{}, 0)
	block, err := client.Exchange(read)

# Diagnostic Reports

Send returns the whole Trace of a logical exchange (including GET RESPONSE
steps when auto-response is enabled). SelectResult and ReadBinaryResult turn a
Trace into a human-readable report with Describe().
*/
package iso7816
