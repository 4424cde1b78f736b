package oem

// sampleOEM mirrors the structure of the NASA ISS OEM feed, trimmed to three
// state vectors. The third vector uses bare scalars without units.
const sampleOEM = `<?xml version="1.0" encoding="UTF-8"?>
<ndm xmlns:xsi="http://www.w3.org/2001/XMLSchema-instance">
  <oem id="CCSDS_OEM_VERS" version="2.0">
    <header>
      <CREATION_DATE>2024-100T08:57:12.583Z</CREATION_DATE>
      <ORIGINATOR>JSC</ORIGINATOR>
    </header>
    <body>
      <segment>
        <metadata>
          <OBJECT_NAME>ISS</OBJECT_NAME>
          <OBJECT_ID>1998-067-A</OBJECT_ID>
          <CENTER_NAME>EARTH</CENTER_NAME>
          <REF_FRAME>EME2000</REF_FRAME>
          <TIME_SYSTEM>UTC</TIME_SYSTEM>
          <START_TIME>2024-100T12:00:00.000Z</START_TIME>
          <STOP_TIME>2024-115T12:00:00.000Z</STOP_TIME>
        </metadata>
        <data>
          <COMMENT>Source: This file was produced by the TOPO office.</COMMENT>
          <COMMENT>MASS=459325.00 kg</COMMENT>
          <stateVector>
            <EPOCH>2024-100T12:00:00.000Z</EPOCH>
            <X units="km">-4634.2700520000004</X>
            <Y units="km">-2519.3049110000002</Y>
            <Z units="km">4302.8193510000001</Z>
            <X_DOT units="km/s">5.0634416711000003</X_DOT>
            <Y_DOT units="km/s">-4.9003812009000001</Y_DOT>
            <Z_DOT units="km/s">2.5801622011999999</Z_DOT>
          </stateVector>
          <stateVector>
            <EPOCH>2024-100T12:04:00.000Z</EPOCH>
            <X units="km">-3337.7837830000001</X>
            <Y units="km">-3532.2003829999999</Y>
            <Z units="km">4740.5834210000003</Z>
            <X_DOT units="km/s">5.6800436544999996</X_DOT>
            <Y_DOT units="km/s">-3.5054378271</Y_DOT>
            <Z_DOT units="km/s">0.98614766609999996</Z_DOT>
          </stateVector>
          <stateVector>
            <EPOCH>2024-100T12:08:00.000Z</EPOCH>
            <X>-1900.5</X>
            <Y>-4300.25</Y>
            <Z>4750.0</Z>
            <X_DOT>6.0</X_DOT>
            <Y_DOT>-2.0</Y_DOT>
            <Z_DOT>-0.6</Z_DOT>
          </stateVector>
        </data>
      </segment>
    </body>
  </oem>
</ndm>`
